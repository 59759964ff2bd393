// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func cleanPhone(phone string) string {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(cleanPhone(phone))
}

// E164 returns phone as "+<digits>" when it is a valid international
// number. Phones are stored as typed by the client, so this is best effort.
func E164(phone string) (string, bool) {
	cleaned := cleanPhone(phone)
	if !strings.HasPrefix(cleaned, "+") || !phonePattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

// WhatsAppLink builds a wa.me chat link for phone, or "" when the number
// has no digits at all.
func WhatsAppLink(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "https://wa.me/" + b.String()
}
