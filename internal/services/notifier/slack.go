package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
)

// ErrDelivery marks a transport or remote API failure.
var ErrDelivery = errors.New("delivery failed")

// maxErrBody caps how much of a failed response ends up in history rows.
const maxErrBody = 512

type SlackSender struct {
	client *http.Client
	log    *zap.Logger
}

func NewSlackSender(client *http.Client) *SlackSender {
	return &SlackSender{
		client: client,
		log:    zap.L().With(zap.String("component", "notifier.slack")),
	}
}

func (s *SlackSender) WithLogger(l *zap.Logger) *SlackSender {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "notifier.slack"))
	return &cp
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

func slackBody(m Message) slackPayload {
	return slackPayload{
		Text: m.Text,
		Blocks: []slackBlock{
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: m.Title}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: m.Text}},
			{Type: "actions", Elements: []slackElement{{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "Download Now", Emoji: true},
				URL:   m.ActionURL,
				Style: "primary",
			}}},
		},
	}
}

// Send validates cfg before touching the network.
func (s *SlackSender) Send(ctx context.Context, cfg channel.SlackConfig, m Message) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(slackBody(m))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build slack request: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: slack request: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return fmt.Errorf("%w: Slack API error: %d - %s", ErrDelivery, resp.StatusCode, bytes.TrimSpace(text))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	s.log.Debug("slack notification sent")
	return nil
}
