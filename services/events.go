package services

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	SubjectAppointmentCreated = "loyalty.appointment.created"
	SubjectAppointmentStatus  = "loyalty.appointment.status"
	SubjectWorkOrderCreated   = "loyalty.workorder.created"
	SubjectWorkOrderStatus    = "loyalty.workorder.status"
	SubjectRewardRedeemed     = "loyalty.reward.redeemed"
	SubjectPointsAwarded      = "loyalty.points.awarded"
	SubjectTransactionCreated = "loyalty.transaction.created"
)

// Publisher fans domain events out to other services.
type Publisher interface {
	Publish(subject string, payload interface{}) error
	Close()
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url, token string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("loyalty-backend"),
		nats.MaxReconnects(-1),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// LogPublisher writes events to the log when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(subject string, payload interface{}) error {
	log.WithFields(log.Fields{"subject": subject, "payload": payload}).Debug("event")
	return nil
}

func (LogPublisher) Close() {}

// Emit publishes best effort; a broker failure never fails the request.
func Emit(p Publisher, subject string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(subject, payload); err != nil {
		log.WithError(err).WithField("subject", subject).Warn("failed to publish event")
	}
}
