package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"loyalty-backend/models"
	"loyalty-backend/utils"
)

// ChatContext is what the assistant may know about the customer it talks to.
type ChatContext struct {
	Customer       models.Customer
	History        []models.ChatMessage
	WishlistCount  int64
	Upcoming       []models.Appointment
	ActiveVouchers []models.Voucher
	PreferredStore *models.Store
	Now            time.Time
}

type Assistant interface {
	Reply(ctx context.Context, cc ChatContext, message string) (string, error)
}

// RuleBasedAssistant answers common questions from the customer's own data.
type RuleBasedAssistant struct{}

type intent struct {
	keywords []string
	answer   func(cc ChatContext) string
}

// Order matters: "appointment" contains "point".
var intents = []intent{
	{[]string{"appointment", "booking", "book", "service"}, answerAppointments},
	{[]string{"point", "tier", "balance", "status level"}, answerPoints},
	{[]string{"voucher", "reward", "coupon", "redeem"}, answerVouchers},
	{[]string{"store", "location", "open", "hours", "near"}, answerStores},
	{[]string{"wishlist", "saved", "favorite", "favourite"}, answerWishlist},
	{[]string{"hello", " hi ", "hey"}, answerGreeting},
}

func (RuleBasedAssistant) Reply(_ context.Context, cc ChatContext, message string) (string, error) {
	text := " " + strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, message) + " "
	for _, in := range intents {
		for _, kw := range in.keywords {
			if strings.Contains(text, kw) {
				return in.answer(cc), nil
			}
		}
	}
	return "I can help with your points and tier, rewards and vouchers, appointments, store locations and your wishlist. What would you like to know?", nil
}

func firstName(c models.Customer) string {
	if parts := strings.Fields(c.Name); len(parts) > 0 {
		return parts[0]
	}
	return "there"
}

func answerGreeting(cc ChatContext) string {
	return fmt.Sprintf("Hi %s! Ask me about your points, rewards, appointments or nearby stores.", firstName(cc.Customer))
}

func answerPoints(cc ChatContext) string {
	p := ProgressFor(cc.Customer.PointsBalance, cc.Customer.LifetimePoints)
	msg := fmt.Sprintf("You have %d points and you are a %s member.", p.Points, p.Tier)
	if p.NextTier != "" {
		msg += fmt.Sprintf(" Earn %d more points to reach %s.", p.PointsToNextTier, p.NextTier)
	} else {
		msg += " You are at our highest tier."
	}
	return msg
}

func answerVouchers(cc ChatContext) string {
	if len(cc.ActiveVouchers) == 0 {
		return "You have no active vouchers right now. Visit the rewards page to turn your points into vouchers."
	}
	total := decimal.Zero
	for _, v := range cc.ActiveVouchers {
		total = total.Add(v.Remaining())
	}
	return fmt.Sprintf("You have %d active voucher(s) worth %s in total. Show the code at checkout to use them.",
		len(cc.ActiveVouchers), total.StringFixed(2))
}

func answerAppointments(cc ChatContext) string {
	if len(cc.Upcoming) == 0 {
		return "You have no upcoming appointments. Pick a store in the store locator to book a service slot."
	}
	next := cc.Upcoming[0]
	loc := next.Store.Location()
	when := next.ScheduledAt.In(loc)
	day := "on " + when.Format("Mon, Jan 2")
	if label := utils.RelativeDayLabel(cc.Now.In(loc), when); label == "Today" || label == "Tomorrow" {
		day = strings.ToLower(label)
	}
	return fmt.Sprintf("Your next appointment is %s for %s at %s (%s, %s).",
		day,
		strings.ReplaceAll(next.ServiceType, "_", " "),
		when.Format("15:04"), next.Store.Name, next.Status)
}

func answerStores(cc ChatContext) string {
	if cc.PreferredStore == nil {
		return "Use the store locator to find stores near you, filter by service and see which ones are open now."
	}
	s := *cc.PreferredStore
	state := "closed"
	if IsOpenAt(s, cc.Now) {
		state = "open"
	}
	msg := fmt.Sprintf("Your preferred store %s at %s is %s now.", s.Name, s.Address, state)
	if h, ok := HoursOn(s, cc.Now); ok && !h.Closed {
		msg += fmt.Sprintf(" Today's hours are %s to %s.", h.Open, h.Close)
	}
	return msg
}

func answerWishlist(cc ChatContext) string {
	if cc.WishlistCount == 0 {
		return "Your wishlist is empty. Tap the heart on any product to save it."
	}
	return fmt.Sprintf("You have %d item(s) saved in your wishlist.", cc.WishlistCount)
}

// HTTPAssistant talks to an OpenAI compatible chat completions endpoint.
type HTTPAssistant struct {
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

func NewHTTPAssistant(url, apiKey, model string) *HTTPAssistant {
	return &HTTPAssistant{
		URL:    url,
		APIKey: apiKey,
		Model:  model,
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func systemPrompt(cc ChatContext) string {
	p := ProgressFor(cc.Customer.PointsBalance, cc.Customer.LifetimePoints)
	return fmt.Sprintf("You are the shopping and service assistant of a retail loyalty program. "+
		"The customer is %s, a %s member with %d points. They have %d wishlist item(s), "+
		"%d upcoming appointment(s) and %d active voucher(s). Answer briefly.",
		firstName(cc.Customer), p.Tier, p.Points, cc.WishlistCount, len(cc.Upcoming), len(cc.ActiveVouchers))
}

func (a *HTTPAssistant) Reply(ctx context.Context, cc ChatContext, message string) (string, error) {
	msgs := []completionMessage{{Role: "system", Content: systemPrompt(cc)}}
	for _, m := range cc.History {
		msgs = append(msgs, completionMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, completionMessage{Role: models.ChatRoleUser, Content: message})

	body, err := json.Marshal(map[string]interface{}{
		"model":    a.Model,
		"messages": msgs,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
			return "", fmt.Errorf("assistant provider: %s", msg.String())
		}
		return "", fmt.Errorf("assistant provider: status %d", resp.StatusCode)
	}

	content := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if content == "" {
		return "", errors.New("assistant provider: empty reply")
	}
	return content, nil
}

// FallbackAssistant uses Secondary whenever Primary fails.
type FallbackAssistant struct {
	Primary   Assistant
	Secondary Assistant
}

func (f FallbackAssistant) Reply(ctx context.Context, cc ChatContext, message string) (string, error) {
	reply, err := f.Primary.Reply(ctx, cc, message)
	if err == nil {
		return reply, nil
	}
	log.WithError(err).Warn("assistant provider failed, using rule based reply")
	return f.Secondary.Reply(ctx, cc, message)
}
