package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
)

// ErrMissingToken indicates the transport was configured without a bot token.
var ErrMissingToken = errors.New("telegram: bot token is required")

// TransportOptions configures the Telegram Bot API transport.
type TransportOptions struct {
	BotToken   string
	ChatID     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Transport talks to the Telegram Bot API over plain HTTP. Long-poll
// requests use a client without an overall timeout so the poll window
// controls the wait.
type Transport struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *http.Client
	pollClient *http.Client
	logger     *infra.Logger
}

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is the reply event emitted when an inline keyboard button
// is pressed. Data carries the opaque token attached to the button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message"`
}

// InlineButton is a single inline-keyboard button.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// NewTransport constructs the transport with sane defaults.
func NewTransport(opts TransportOptions) (*Transport, error) {
	if strings.TrimSpace(opts.BotToken) == "" {
		return nil, ErrMissingToken
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Transport{
		token:      strings.TrimSpace(opts.BotToken),
		chatID:     opts.ChatID,
		baseURL:    baseURL,
		httpClient: httpClient,
		pollClient: &http.Client{},
		logger:     logger,
	}, nil
}

// ChatID returns the pre-configured operator chat id.
func (t *Transport) ChatID() string {
	return t.chatID
}

// SendMessage sends plain text to the operator chat.
func (t *Transport) SendMessage(ctx context.Context, text string) error {
	return t.SendMessageTo(ctx, t.chatID, text)
}

// SendMessageTo sends plain text to an arbitrary chat (used for refusing
// unauthorized senders).
func (t *Transport) SendMessageTo(ctx context.Context, chatID, text string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	return t.call(ctx, "sendMessage", payload, nil)
}

// SendKeyboard sends text with an inline keyboard to the operator chat.
func (t *Transport) SendKeyboard(ctx context.Context, text string, rows [][]InlineButton) error {
	payload := map[string]any{
		"chat_id": t.chatID,
		"text":    text,
		"reply_markup": map[string]any{
			"inline_keyboard": rows,
		},
	}
	return t.call(ctx, "sendMessage", payload, nil)
}

// AnswerCallback acknowledges a callback query so the client UI stops
// showing its pending indicator.
func (t *Transport) AnswerCallback(ctx context.Context, callbackID string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	return t.call(ctx, "answerCallbackQuery", payload, nil)
}

// GetUpdates long-polls for inbound updates starting at offset.
func (t *Transport) GetUpdates(ctx context.Context, offset int64, window time.Duration) ([]Update, error) {
	seconds := int(window / time.Second)
	if seconds <= 0 {
		seconds = 30
	}
	payload := map[string]any{
		"offset":          offset,
		"timeout":         seconds,
		"allowed_updates": []string{"message", "callback_query"},
	}

	var updates []Update
	ctx, cancel := context.WithTimeout(ctx, window+10*time.Second)
	defer cancel()
	if err := t.callWith(ctx, t.pollClient, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (t *Transport) call(ctx context.Context, method string, payload, out any) error {
	return t.callWith(ctx, t.httpClient, method, payload, out)
}

func (t *Transport) callWith(ctx context.Context, client *http.Client, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: encode %s: %w", method, err)
	}

	endpoint := t.baseURL + "/bot" + t.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: telegram %s: %v", domain.ErrTransport, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", method, err)
	}
	if resp.StatusCode >= 300 {
		t.logger.Error().Int("status", resp.StatusCode).Str("method", method).Msg("telegram: request failed")
		return domain.TransportError("telegram "+method, resp.StatusCode)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram: %s: %s", method, envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

// FormatChatID renders a numeric chat id the way the config stores it.
func FormatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
