package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loyalty-backend/models"
	"loyalty-backend/utils"
)

// RenderTemplate fills [Placeholder] tokens in a message template.
func RenderTemplate(message string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "["+k+"]", v)
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// ErrDeliveryFailed means the sender rejected the message; the attempt is still logged.
var ErrDeliveryFailed = errors.New("message delivery failed")

// Notifier sends templated SMS messages and records every attempt.
type Notifier struct {
	db     *gorm.DB
	sender SMSSender
}

func NewNotifier(db *gorm.DB, sender SMSSender) *Notifier {
	return &Notifier{db: db, sender: sender}
}

func appointmentVars(a models.Appointment, customerName string) map[string]string {
	when := a.ScheduledAt.In(a.Store.Location())
	return map[string]string{
		"CustomerName": customerName,
		"StoreName":    a.Store.Name,
		"Time":         when.Format("Mon Jan 2 15:04"),
		"Service":      strings.ReplaceAll(a.ServiceType, "_", " "),
	}
}

// Notify renders the active template of templateType for customer and sends it.
// A missing template is not an error; the message is simply skipped.
// A rejected send is logged and reported as ErrDeliveryFailed.
func (n *Notifier) Notify(ctx context.Context, customer models.Customer, templateType string, referenceID *uuid.UUID, vars map[string]string) error {
	db := n.db.WithContext(ctx)

	var template models.MessageTemplate
	if err := db.Where("type = ? AND is_active = ?", templateType, true).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithField("type", templateType).Debug("no active template, skipping notification")
			return nil
		}
		return err
	}
	if customer.Phone == "" {
		return nil
	}

	message := RenderTemplate(template.Message, vars)
	entry := models.NotificationLog{
		CustomerID:  customer.ID,
		TemplateID:  &template.ID,
		ReferenceID: referenceID,
		Type:        templateType,
		Message:     message,
		Status:      "sent",
		Channel:     n.sender.Channel(),
		SentAt:      time.Now(),
	}

	sid, sendErr := n.sender.Send(customer.Phone, message)
	if sendErr != nil {
		log.WithError(sendErr).WithField("customer", customer.ID).Warn("failed to send message")
		entry.Status = "failed"
		entry.ErrorMessage = sendErr.Error()
	} else {
		log.WithFields(log.Fields{"customer": customer.ID, "sid": sid, "type": templateType}).Info("message sent")
	}

	if err := db.Create(&entry).Error; err != nil {
		log.WithError(err).WithField("customer", customer.ID).Error("failed to log notification")
	}
	if sendErr != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
	}
	return nil
}

// NotifyAppointment sends templateType about a with its store preloaded.
func (n *Notifier) NotifyAppointment(ctx context.Context, customer models.Customer, a models.Appointment, templateType string) error {
	return n.Notify(ctx, customer, templateType, &a.ID, appointmentVars(a, customer.Name))
}

// ReminderService runs the periodic jobs: appointment reminders and voucher expiry.
type ReminderService struct {
	db       *gorm.DB
	notifier *Notifier
	loyalty  *LoyaltyService
	cron     *cron.Cron
	now      func() time.Time
}

func NewReminderService(db *gorm.DB, notifier *Notifier, loyalty *LoyaltyService) *ReminderService {
	return &ReminderService{
		db:       db,
		notifier: notifier,
		loyalty:  loyalty,
		cron:     cron.New(),
		now:      time.Now,
	}
}

func (s *ReminderService) StartScheduler(reminderSpec, expirySpec string) error {
	if _, err := s.cron.AddFunc(reminderSpec, s.SendAppointmentReminders); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(expirySpec, s.expireVouchers); err != nil {
		return err
	}

	s.cron.Start()
	log.WithFields(log.Fields{"reminders": reminderSpec, "voucherExpiry": expirySpec}).Info("scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *ReminderService) Stop() context.Context {
	return s.cron.Stop()
}

func (s *ReminderService) expireVouchers() {
	n, err := s.loyalty.ExpireVouchers(context.Background())
	if err != nil {
		log.WithError(err).Error("voucher expiry failed")
		return
	}
	if n > 0 {
		log.WithField("count", n).Info("vouchers expired")
	}
}

// reminderDue reports whether a is on the day after now in its store's timezone.
func reminderDue(a models.Appointment, now time.Time) bool {
	loc := a.Store.Location()
	tomorrow := utils.BeginningOfDay(now.In(loc)).AddDate(0, 0, 1)
	return utils.BeginningOfDay(a.ScheduledAt.In(loc)).Equal(tomorrow)
}

// SendAppointmentReminders texts every customer with a booking tomorrow, in the store's
// local calendar, that was not reminded yet. Failed sends stay unmarked for the next run.
func (s *ReminderService) SendAppointmentReminders() {
	ctx := context.Background()
	now := s.now()

	// Any store's local tomorrow lies within the next 48 hours.
	var appointments []models.Appointment
	if err := s.db.WithContext(ctx).Preload("Store").Preload("Customer").
		Where("status IN ? AND reminder_sent_at IS NULL AND scheduled_at >= ? AND scheduled_at < ?",
			[]string{models.AppointmentScheduled, models.AppointmentConfirmed}, now, now.Add(48*time.Hour)).
		Find(&appointments).Error; err != nil {
		log.WithError(err).Error("failed to load appointments for reminders")
		return
	}

	sent := 0
	for _, a := range appointments {
		if a.Customer == nil || !reminderDue(a, now) {
			continue
		}
		if err := s.notifier.NotifyAppointment(ctx, *a.Customer, a, models.TemplateAppointmentReminder); err != nil {
			log.WithError(err).WithField("appointment", a.ID).Error("reminder failed")
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", a.ID).
			Update("reminder_sent_at", now).Error; err != nil {
			log.WithError(err).WithField("appointment", a.ID).Error("failed to mark reminder sent")
			continue
		}
		sent++
	}
	log.WithFields(log.Fields{"candidates": len(appointments), "sent": sent}).Info("appointment reminders done")
}
