// Package telegram provides Telegram notification services.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		baseURL: "https://api.telegram.org",
	}
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// APIError is returned when the Bot API rejects a message.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("telegram API returned status %d: %s", e.StatusCode, e.Description)
}

// SendNotification posts a shutdown notification to the configured chat.
// Delivery problems end up in the result, never in the returned error.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
	s.logger.Info().
		Str("chat_id", cfg.ChatID).
		Str("stage", string(msg.Stage)).
		Stringer("action", msg.Action).
		Msg("sending Telegram notification")

	if err := s.sendMessage(ctx, cfg, formatMessage(msg)); err != nil {
		return &models.TelegramResult{Error: err}, nil
	}

	s.logger.Debug().Str("stage", string(msg.Stage)).Msg("Telegram accepted the message")
	return &models.TelegramResult{MessageSent: true}, nil
}

func (s *Impl) sendMessage(ctx context.Context, cfg models.TelegramConfig, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                cfg.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var reply apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&reply); err == nil {
		apiErr.Description = reply.Description
	}
	return apiErr
}

func formatMessage(msg models.TelegramMessage) string {
	var b bytes.Buffer

	switch msg.Stage {
	case models.StageFailed:
		b.WriteString("❌ <b>Emergency Shutdown Failed</b>\n\n")
	default:
		b.WriteString("⚠️ <b>Emergency Shutdown Requested</b>\n\n")
	}

	b.WriteString(fmt.Sprintf("🖥 <b>Host:</b> %s\n", escapeHTML(msg.Host)))
	b.WriteString(fmt.Sprintf("⏻ <b>Action:</b> %s\n", escapeHTML(msg.Action.String())))
	b.WriteString(fmt.Sprintf("⏰ <b>Time:</b> %s\n", msg.Time.Format("2006-01-02 15:04:05")))

	if msg.Stage == models.StageFailed {
		b.WriteString("\n<b>Error Details:</b>\n")
		b.WriteString(fmt.Sprintf("  • Error: <code>%s</code>\n", escapeHTML(msg.ErrorMessage)))
	} else {
		b.WriteString("\nThe machine is going down without notifying running applications.\n")
	}

	return b.String()
}

// htmlEscaper covers the entities Telegram's HTML parse mode understands.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
