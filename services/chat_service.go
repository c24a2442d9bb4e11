package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
)

var ErrSessionClosed = errors.New("chat session is closed")

const (
	historyWindow = 10
	titleLength   = 60
)

type ChatService struct {
	db        *gorm.DB
	assistant Assistant
	now       func() time.Time
}

func NewChatService(db *gorm.DB, assistant Assistant) *ChatService {
	return &ChatService{db: db, assistant: assistant, now: time.Now}
}

// ChatExchange is one user turn with its reply.
type ChatExchange struct {
	Session          models.ChatSession `json:"session"`
	UserMessage      models.ChatMessage `json:"userMessage"`
	AssistantMessage models.ChatMessage `json:"assistantMessage"`
}

// OpenSession returns the customer's most recent open session, creating one if needed.
func (s *ChatService) OpenSession(ctx context.Context, customerID uuid.UUID) (*models.ChatSession, bool, error) {
	db := s.db.WithContext(ctx)

	var session models.ChatSession
	err := db.Where("customer_id = ? AND status = ?", customerID, models.ChatSessionOpen).
		Order("updated_at DESC").First(&session).Error
	if err == nil {
		return &session, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	session = models.ChatSession{CustomerID: customerID, Status: models.ChatSessionOpen}
	if err := db.Create(&session).Error; err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (s *ChatService) sessionFor(ctx context.Context, customerID uuid.UUID, sessionID *uuid.UUID) (*models.ChatSession, error) {
	if sessionID == nil {
		session, _, err := s.OpenSession(ctx, customerID)
		return session, err
	}

	var session models.ChatSession
	if err := s.db.WithContext(ctx).Where("id = ? AND customer_id = ?", *sessionID, customerID).
		First(&session).Error; err != nil {
		return nil, err
	}
	if session.Status != models.ChatSessionOpen {
		return nil, ErrSessionClosed
	}
	return &session, nil
}

func (s *ChatService) buildContext(ctx context.Context, customerID, sessionID uuid.UUID) (ChatContext, error) {
	db := s.db.WithContext(ctx)
	cc := ChatContext{Now: s.now()}

	if err := db.First(&cc.Customer, "id = ?", customerID).Error; err != nil {
		return cc, err
	}

	var history []models.ChatMessage
	if err := db.Where("session_id = ?", sessionID).Order("created_at DESC").
		Limit(historyWindow).Find(&history).Error; err != nil {
		return cc, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		cc.History = append(cc.History, history[i])
	}

	if err := db.Model(&models.WishlistItem{}).Where("customer_id = ?", customerID).
		Count(&cc.WishlistCount).Error; err != nil {
		return cc, err
	}

	if err := db.Preload("Store").
		Where("customer_id = ? AND status IN ? AND scheduled_at >= ?", customerID,
			[]string{models.AppointmentScheduled, models.AppointmentConfirmed}, cc.Now).
		Order("scheduled_at").Limit(3).Find(&cc.Upcoming).Error; err != nil {
		return cc, err
	}

	if err := db.Where("customer_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
		customerID, models.VoucherActive, cc.Now).Find(&cc.ActiveVouchers).Error; err != nil {
		return cc, err
	}

	if cc.Customer.PreferredStoreID != nil {
		var store models.Store
		if err := db.First(&store, "id = ?", *cc.Customer.PreferredStoreID).Error; err == nil {
			cc.PreferredStore = &store
		}
	}
	return cc, nil
}

// SendMessage asks the assistant and stores the user's message with the reply.
func (s *ChatService) SendMessage(ctx context.Context, customerID uuid.UUID, sessionID *uuid.UUID, content string) (*ChatExchange, error) {
	session, err := s.sessionFor(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}

	cc, err := s.buildContext(ctx, customerID, session.ID)
	if err != nil {
		return nil, err
	}

	reply, err := s.assistant.Reply(ctx, cc, content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	userMsg := models.ChatMessage{SessionID: session.ID, Role: models.ChatRoleUser, Content: content}
	assistantMsg := models.ChatMessage{SessionID: session.ID, Role: models.ChatRoleAssistant, Content: reply}
	updates := map[string]interface{}{"last_message_at": now}
	title := session.Title
	if title == "" {
		title = titleFrom(content)
		updates["title"] = title
	}

	// The question and its answer are stored together or not at all.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		if err := tx.Create(&assistantMsg).Error; err != nil {
			return err
		}
		return tx.Model(session).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	config.ChatMessages.WithLabelValues(models.ChatRoleUser).Inc()
	config.ChatMessages.WithLabelValues(models.ChatRoleAssistant).Inc()
	session.Title = title
	session.LastMessageAt = &now

	return &ChatExchange{Session: *session, UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

func titleFrom(content string) string {
	r := []rune(content)
	if len(r) <= titleLength {
		return string(r)
	}
	return string(r[:titleLength-3]) + "..."
}

// Close marks a customer's session closed. It reports false when the session is not theirs.
func (s *ChatService) Close(ctx context.Context, customerID, sessionID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ? AND customer_id = ?", sessionID, customerID).
		Update("status", models.ChatSessionClosed)
	return res.RowsAffected > 0, res.Error
}
