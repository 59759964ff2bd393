package services

import (
	"errors"
	"fmt"
	"strings"

	"blakwhyte-backend/config"
	"blakwhyte-backend/utils"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"
	tele "gopkg.in/telebot.v3"
)

var ErrNoRecipient = errors.New("no usable recipient")

// Messenger sends a text message to a client's phone.
type Messenger interface {
	SendText(phone, body string) (channel, externalID string, err error)
}

// Mailer sends a plain text email.
type Mailer interface {
	SendMail(to, subject, body string) error
}

// Alerter notifies the studio's administrators.
type Alerter interface {
	Alert(message string) error
}

// TwilioMessenger prefers WhatsApp for international numbers and falls
// back to SMS.
type TwilioMessenger struct {
	client       *twilio.RestClient
	smsFrom      string
	whatsappFrom string
}

// NewTwilioMessenger returns nil when credentials are missing.
func NewTwilioMessenger(cfg config.TwilioConfig) *TwilioMessenger {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil
	}
	return &TwilioMessenger{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		smsFrom:      cfg.PhoneNumber,
		whatsappFrom: cfg.WhatsAppNumber,
	}
}

func (m *TwilioMessenger) SendText(phone, body string) (string, string, error) {
	channel := "sms"
	to := strings.TrimSpace(phone)
	from := m.smsFrom
	if e164, ok := utils.E164(phone); ok && m.whatsappFrom != "" {
		channel = "whatsapp"
		to = "whatsapp:" + e164
		from = "whatsapp:" + m.whatsappFrom
	}
	if to == "" || from == "" {
		return channel, "", ErrNoRecipient
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := m.client.Api.CreateMessage(params)
	if err != nil {
		return channel, "", err
	}
	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	return channel, sid, nil
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer returns nil when no SMTP host is configured.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if cfg.Host == "" || cfg.From == "" {
		return nil
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendMail(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

type TelegramAlerter struct {
	bot   *tele.Bot
	chats []int64
}

// NewTelegramAlerter returns nil, nil when alerts are not configured.
func NewTelegramAlerter(cfg config.TelegramConfig) (*TelegramAlerter, error) {
	if cfg.Token == "" || len(cfg.AdminChatIDs) == 0 {
		return nil, nil
	}
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramAlerter{bot: bot, chats: cfg.AdminChatIDs}, nil
}

func (a *TelegramAlerter) Alert(message string) error {
	var errs []error
	for _, chat := range a.chats {
		if _, err := a.bot.Send(tele.ChatID(chat), message, &tele.SendOptions{ParseMode: tele.ModeHTML}); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chat, err))
		}
	}
	return errors.Join(errs...)
}
