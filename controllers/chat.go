package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

const (
	maxChatMessageLength = 2000
	wsReadLimit          = 8 << 10
	wsWriteTimeout       = 10 * time.Second
)

type SendChatMessageInput struct {
	SessionID *uuid.UUID `json:"sessionId"`
	Content   string     `json:"content" binding:"required,max=2000"`
}

// wsFrame is both the inbound and outbound websocket payload.
type wsFrame struct {
	Type  string                 `json:"type"` // message, reply, error
	Data  *services.ChatExchange `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

type ChatController struct {
	Chat     *services.ChatService
	Limiter  *utils.RateLimiter
	upgrader websocket.Upgrader
}

func NewChatController(chat *services.ChatService, limiter *utils.RateLimiter, allowedOrigins []string) *ChatController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &ChatController{
		Chat:    chat,
		Limiter: limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// CreateSession returns the caller's open session, starting one if needed
func (cc *ChatController) CreateSession(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	session, created, err := cc.Chat.OpenSession(c.Request.Context(), customerID)
	if err != nil {
		respondDBError(c, err, "chat session")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, session)
}

func (cc *ChatController) GetSessions(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	sessions := []models.ChatSession{}
	if err := config.DB.Where("customer_id = ?", customerID).
		Order("updated_at DESC").Limit(50).
		Find(&sessions).Error; err != nil {
		respondDBError(c, err, "chat session")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (cc *ChatController) GetMessages(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id", "chat session")
	if !ok {
		return
	}

	var session models.ChatSession
	if err := config.DB.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ? AND customer_id = ?", sessionID, customerID).First(&session).Error; err != nil {
		respondDBError(c, err, "chat session")
		return
	}
	if session.Messages == nil {
		session.Messages = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, session)
}

func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Chat session not found"
	case errors.Is(err, services.ErrSessionClosed):
		return http.StatusConflict, "Chat session is closed"
	default:
		return http.StatusInternalServerError, "Assistant is unavailable"
	}
}

// SendMessage appends a user message and the assistant's reply
func (cc *ChatController) SendMessage(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var input SendChatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	exchange, err := cc.Chat.SendMessage(c.Request.Context(), customerID, input.SessionID, content)
	if err != nil {
		status, msg := chatErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.WithError(err).WithField("customer", customerID).Error("chat message failed")
		}
		utils.RespondWithError(c, status, msg)
		return
	}
	c.JSON(http.StatusCreated, exchange)
}

func (cc *ChatController) CloseSession(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id", "chat session")
	if !ok {
		return
	}

	closed, err := cc.Chat.Close(c.Request.Context(), customerID, sessionID)
	if err != nil {
		respondDBError(c, err, "chat session")
		return
	}
	if !closed {
		utils.RespondWithError(c, http.StatusNotFound, "Chat session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat session closed", "id": sessionID})
}

// ServeWS carries the same exchange as SendMessage over a websocket
func (cc *ChatController) ServeWS(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	conn, err := cc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("failed to upgrade chat websocket")
		return
	}
	log.WithField("customer", customerID).Info("chat websocket connected")

	cc.handleConnection(c.Request.Context(), conn, customerID)
}

func (cc *ChatController) handleConnection(ctx context.Context, conn *websocket.Conn, customerID uuid.UUID) {
	defer func() {
		conn.Close()
		log.WithField("customer", customerID).Info("chat websocket closed")
	}()
	conn.SetReadLimit(wsReadLimit)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("customer", customerID).Warn("chat websocket closed unexpectedly")
			}
			return
		}

		var input SendChatMessageInput
		if err := json.Unmarshal(raw, &input); err != nil {
			cc.writeFrame(conn, wsFrame{Type: "error", Error: "Invalid message format"})
			continue
		}
		content := strings.TrimSpace(input.Content)
		if content == "" || len([]rune(content)) > maxChatMessageLength {
			cc.writeFrame(conn, wsFrame{Type: "error", Error: "Message must be 1-2000 characters"})
			continue
		}
		if cc.Limiter != nil && !cc.Limiter.Allow(customerID.String()) {
			cc.writeFrame(conn, wsFrame{Type: "error", Error: "Too many requests, slow down"})
			continue
		}

		exchange, err := cc.Chat.SendMessage(ctx, customerID, input.SessionID, content)
		if err != nil {
			status, msg := chatErrorStatus(err)
			if status == http.StatusInternalServerError {
				log.WithError(err).WithField("customer", customerID).Error("chat message failed")
			}
			cc.writeFrame(conn, wsFrame{Type: "error", Error: msg})
			continue
		}
		cc.writeFrame(conn, wsFrame{Type: "reply", Data: exchange})
	}
}

func (cc *ChatController) writeFrame(conn *websocket.Conn, frame wsFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		log.WithError(err).Warn("failed to write chat frame")
	}
}
