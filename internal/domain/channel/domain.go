// Package channel describes the closed set of delivery channels and the
// per-channel configuration a user supplies when subscribing.
package channel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownChannel = errors.New("unsupported notification channel")
	ErrInvalidConfig  = errors.New("invalid channel config")
)

// Kind is the channel name stored in notification_channels.name.
type Kind string

const (
	KindSlack    Kind = "slack"
	KindTelegram Kind = "telegram"
)

// Kinds lists every supported channel. Adding a channel means adding a
// Kind here, a Config variant below and a case in the notifier.
func Kinds() []Kind { return []Kind{KindSlack, KindTelegram} }

func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindSlack, KindTelegram:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}
}

// Channel is seeded reference data.
type Channel struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

func (c *Channel) Kind() (Kind, error) { return ParseKind(c.Name) }

// Config is the decoded, validated form of preference.channel_config.
type Config interface {
	Kind() Kind
	Validate() error
}

const SlackWebhookPrefix = "https://hooks.slack.com/"

type SlackConfig struct {
	Webhook string `json:"webhook"`
}

func (SlackConfig) Kind() Kind { return KindSlack }

func (c SlackConfig) Validate() error {
	if c.Webhook == "" || !strings.HasPrefix(c.Webhook, SlackWebhookPrefix) {
		return fmt.Errorf("%w: invalid Slack webhook URL, must start with %s", ErrInvalidConfig, SlackWebhookPrefix)
	}
	return nil
}

type TelegramConfig struct {
	ChatID   ChatID `json:"chatId"`
	BotToken string `json:"botToken"`
}

func (TelegramConfig) Kind() Kind { return KindTelegram }

func (c TelegramConfig) Validate() error {
	if c.ChatID == "" || c.BotToken == "" {
		return fmt.Errorf("%w: Telegram configuration requires both chatId and botToken", ErrInvalidConfig)
	}
	return nil
}

// DecodeConfig turns the stored blob into the variant for kind and
// validates it.
func DecodeConfig(kind Kind, raw []byte) (Config, error) {
	var cfg Config
	switch kind {
	case KindSlack:
		var c SlackConfig
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case KindTelegram:
		var c TelegramConfig
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, kind)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrict(raw []byte, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: empty config", ErrInvalidConfig)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ChatID accepts both "123" and 123; Telegram chat ids are often
// pasted as numbers.
type ChatID string

func (f *ChatID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = ChatID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("chatId must be a string or number")
	}
	*f = ChatID(n.String())
	return nil
}

func (f ChatID) String() string { return string(f) }
