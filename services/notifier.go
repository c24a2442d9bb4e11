package services

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender delivers a single text message.
type SMSSender interface {
	Send(to, body string) (string, error)
	Channel() string
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSid, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: from,
	}
}

func (t *TwilioSender) Send(to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

func (t *TwilioSender) Channel() string { return "sms" }

// LogSender stands in for twilio in development.
type LogSender struct{}

func (LogSender) Send(to, body string) (string, error) {
	log.WithFields(log.Fields{"to": to, "body": body}).Info("sms (log only)")
	return "log-" + uuid.NewString(), nil
}

func (LogSender) Channel() string { return "log" }
