package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
)

const DefaultTelegramAPI = "https://api.telegram.org"

type TelegramSender struct {
	client  *http.Client
	apiBase string
	log     *zap.Logger
}

func NewTelegramSender(client *http.Client, apiBase string) *TelegramSender {
	if apiBase == "" {
		apiBase = DefaultTelegramAPI
	}
	return &TelegramSender{
		client:  client,
		apiBase: strings.TrimRight(apiBase, "/"),
		log:     zap.L().With(zap.String("component", "notifier.telegram")),
	}
}

func (s *TelegramSender) WithLogger(l *zap.Logger) *TelegramSender {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "notifier.telegram"))
	return &cp
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramError struct {
	Description string `json:"description"`
}

func (s *TelegramSender) Send(ctx context.Context, cfg channel.TelegramConfig, m Message) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    cfg.ChatID.String(),
		Text:      m.Text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := s.apiBase + "/bot" + cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build telegram request", ErrDelivery)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// the URL embeds the bot token, keep it out of the message
		return fmt.Errorf("%w: telegram request: %v", ErrDelivery, redact(err, cfg.BotToken))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		var te telegramError
		if json.Unmarshal(raw, &te) != nil || te.Description == "" {
			te.Description = "Unknown error"
		}
		return fmt.Errorf("%w: %s", ErrDelivery, describeTelegram(resp.StatusCode, te.Description))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	s.log.Debug("telegram notification sent", zap.String("chat_id", cfg.ChatID.String()))
	return nil
}

func describeTelegram(status int, desc string) string {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "chat not found"):
		return "Chat not found. Please make sure you have started a conversation with your bot. " +
			"Open Telegram, search for your bot by username, and send it a message first."
	case strings.Contains(d, "bot was blocked by the user"):
		return "The bot was blocked by the user. Please unblock the bot in Telegram and try again."
	case strings.Contains(d, "wrong bot token"), status == http.StatusUnauthorized:
		return "Invalid bot token. Please check your bot token and try again."
	default:
		return fmt.Sprintf("Telegram API error: %d - %s", status, desc)
	}
}

func redact(err error, secret string) string {
	if secret == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), secret, "***")
}
