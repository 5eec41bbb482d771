// Package notifier fans a detected version out to every subscribed user and
// records one history row per delivery attempt.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
	"github.com/NordCoder/Versionwatch/internal/domain/notification"
	"github.com/NordCoder/Versionwatch/internal/domain/preference"
	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/domain/version"
	"github.com/NordCoder/Versionwatch/internal/obs"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

type Deps struct {
	Channels    ChannelLister
	Preferences PreferenceReader
	Users       UserReader
	History     HistoryWriter
	Slack       *SlackSender
	Telegram    *TelegramSender
	Templates   Templates
	Log         *zap.Logger
}

type Dispatcher struct {
	channels ChannelLister
	prefs    PreferenceReader
	users    UserReader
	history  HistoryWriter
	slack    *SlackSender
	telegram *TelegramSender
	tpl      Templates
	log      *zap.Logger
}

func NewDispatcher(d Deps) *Dispatcher {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		channels: d.Channels,
		prefs:    d.Preferences,
		users:    d.Users,
		history:  d.History,
		slack:    d.Slack,
		telegram: d.Telegram,
		tpl:      d.Templates.withDefaults(),
		log:      log.With(zap.String("component", "notifier.dispatcher")),
	}
}

// Report summarises one NotifyAll run. Attempted = Succeeded + Failed.
// Cancelled counts listed subscribers never reached because ctx ended.
type Report struct {
	Version   string `json:"version"`
	Channels  int    `json:"channels"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Cancelled int    `json:"cancelled"`
}

// Attempt is the outcome of delivering to one (user, channel) pair.
type Attempt struct {
	UserID    string
	ChannelID int64
	Err       error
}

// NotifyAll never fails as a whole: per-recipient errors become failed
// history rows and per-channel errors are logged.
func (d *Dispatcher) NotifyAll(ctx context.Context, v *version.Version) Report {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notifier.NotifyAll")
	defer span.End()
	span.SetAttributes(attribute.String("version", v.Version))
	start := time.Now()
	log := obs.WithTrace(ctx, d.log).With(zap.String("version", v.Version))

	rep := Report{Version: v.Version}
	channels, err := d.channels.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list channels")
		log.Error("list channels", zap.Error(err))
		return rep
	}

	msg := d.tpl.NewVersion(v.Version)
	for i, ch := range channels {
		if err := ctx.Err(); err != nil {
			log.Warn("fan-out cancelled before channel",
				zap.String("channel", ch.Name),
				zap.Int("channels_left", len(channels)-i),
				zap.Error(err),
			)
			span.SetStatus(codes.Error, "cancelled")
			break
		}
		attempts, skipped, cancelled, err := d.collect(ctx, ch, msg)
		if err != nil {
			log.Error("channel skipped", zap.String("channel", ch.Name), zap.Error(err))
			continue
		}
		rep.Channels++
		rep.Skipped += skipped
		d.record(ctx, ch, v, attempts, &rep)
		if cancelled > 0 {
			rep.Cancelled += cancelled
			recipientsCancelled.Add(float64(cancelled))
			span.SetStatus(codes.Error, "cancelled")
			log.Warn("fan-out cancelled mid-channel",
				zap.String("channel", ch.Name),
				zap.Int("recipients_dropped", cancelled),
				zap.Error(ctx.Err()),
			)
		}
	}

	fanoutDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("attempted", rep.Attempted),
		attribute.Int("failed", rep.Failed),
		attribute.Int("cancelled", rep.Cancelled),
	)
	log.Info("fan-out finished",
		zap.Int("channels", rep.Channels),
		zap.Int("attempted", rep.Attempted),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("cancelled", rep.Cancelled),
	)
	return rep
}

// collect delivers msg to every active subscriber of ch and returns one
// Attempt per delivery tried, the skipped count and the number of
// subscribers left out once ctx ended. The error is set only when the
// recipients of the channel could not be listed.
func (d *Dispatcher) collect(ctx context.Context, ch *channel.Channel, msg Message) ([]Attempt, int, int, error) {
	userIDs, err := d.prefs.ListActiveUserIDsForChannel(ctx, ch.ID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("list subscribers: %w", err)
	}

	var (
		attempts  []Attempt
		skipped   int
		cancelled int
	)
	for i, uid := range userIDs {
		if ctx.Err() != nil {
			cancelled = len(userIDs) - i
			break
		}
		pref, err := d.resolve(ctx, uid, ch.ID)
		if err == nil && pref == nil {
			skipped++
			continue
		}
		if err == nil {
			err = d.deliver(ctx, ch, pref.ChannelConfig, msg)
		}
		attempts = append(attempts, Attempt{UserID: uid, ChannelID: ch.ID, Err: err})
	}
	return attempts, skipped, cancelled, nil
}

// resolve re-reads the preference so that a subscription disabled during a
// long run is honoured. It returns nil, nil when the user or the active
// preference is gone.
func (d *Dispatcher) resolve(ctx context.Context, userID string, channelID int64) (*preference.Preference, error) {
	if d.users != nil {
		if _, err := d.users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("load user: %w", err)
		}
	}
	pref, err := d.prefs.GetForUserChannel(ctx, userID, channelID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load preference: %w", err)
	}
	if !pref.IsActive {
		return nil, nil
	}
	return pref, nil
}

// deliver decodes raw for the channel and hands msg to the matching sender.
func (d *Dispatcher) deliver(ctx context.Context, ch *channel.Channel, raw []byte, msg Message) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notifier.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("channel", ch.Name))

	err := d.send(ctx, ch, raw, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver")
	}
	return err
}

func (d *Dispatcher) send(ctx context.Context, ch *channel.Channel, raw []byte, msg Message) error {
	kind, err := ch.Kind()
	if err != nil {
		return err
	}
	cfg, err := channel.DecodeConfig(kind, raw)
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() { deliveryLatency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds()) }()

	switch c := cfg.(type) {
	case channel.SlackConfig:
		return d.slack.Send(ctx, c, msg)
	case channel.TelegramConfig:
		return d.telegram.Send(ctx, c, msg)
	default:
		return fmt.Errorf("%w: %s", channel.ErrUnknownChannel, ch.Name)
	}
}

// record writes one history row per attempt. A failed write is logged and
// counted and does not stop the remaining rows.
func (d *Dispatcher) record(ctx context.Context, ch *channel.Channel, v *version.Version, attempts []Attempt, rep *Report) {
	log := obs.WithTrace(ctx, d.log)
	for _, a := range attempts {
		h := &notification.History{
			UserID:    a.UserID,
			ChannelID: a.ChannelID,
			VersionID: v.ID,
			Status:    notification.StatusSuccess,
		}
		rep.Attempted++
		if a.Err != nil {
			msg := a.Err.Error()
			h.Status = notification.StatusFailed
			h.ErrorMessage = &msg
			rep.Failed++
			log.Warn("delivery failed",
				zap.String("channel", ch.Name),
				zap.String("user_id", a.UserID),
				zap.Error(a.Err),
			)
		} else {
			rep.Succeeded++
		}
		deliveriesTotal.WithLabelValues(ch.Name, string(h.Status)).Inc()

		if err := d.history.Record(context.WithoutCancel(ctx), h); err != nil {
			historyWriteErrors.Inc()
			log.Error("record history",
				zap.String("channel", ch.Name),
				zap.String("user_id", a.UserID),
				zap.Error(err),
			)
		}
	}
}

// SendTest delivers the fixed test message through a single channel. Nothing
// is recorded and the sender error comes back unchanged.
func (d *Dispatcher) SendTest(ctx context.Context, ch *channel.Channel, u *user.User, raw []byte) error {
	err := d.deliver(ctx, ch, raw, d.tpl.Test())
	if err != nil {
		var uid string
		if u != nil {
			uid = u.ID
		}
		obs.WithTrace(ctx, d.log).Info("test delivery failed",
			zap.String("channel", ch.Name),
			zap.String("user_id", uid),
			zap.Error(err),
		)
	}
	return err
}
