package services

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders amount with the currency's symbol, e.g. "R 50.00"
// for ZAR. Unknown codes are printed as "<code> 50.00".
func FormatMoney(code string, amount decimal.Decimal) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + amount.StringFixed(2)
	}
	f, _ := amount.Round(2).Float64()
	return printer.Sprint(currency.NarrowSymbol(unit.Amount(f)))
}
