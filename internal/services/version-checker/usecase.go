// Package checker runs the detection cycle: read the vendor's current
// release, store it when it is newer than what we have and fan it out.
package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	domainkafka "github.com/NordCoder/Versionwatch/internal/domain/kafka"
	"github.com/NordCoder/Versionwatch/internal/domain/outbox"
	domainversion "github.com/NordCoder/Versionwatch/internal/domain/version"
	"github.com/NordCoder/Versionwatch/internal/obs"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/notifier"
	"github.com/NordCoder/Versionwatch/internal/version"
)

// Result mirrors what the admin endpoint reports. Record is set only when a
// new row was stored.
type Result struct {
	IsNewVersion bool                   `json:"isNewVersion"`
	Version      string                 `json:"version,omitempty"`
	Record       *domainversion.Version `json:"record,omitempty"`
}

type Usecase struct {
	Versions  VersionStore
	Outbox    Enqueuer
	Tx        Transactor
	Vendor    Fetcher
	Extractor *version.Extractor
	Fanout    Fanout
	Log       *zap.Logger
}

func OutboxKey(v string) string { return "version:" + v }

// Check never returns an error: detection and storage failures are logged
// and reported as "nothing new".
func (u *Usecase) Check(ctx context.Context) Result {
	ctx, span := otel.Tracer("checker.uc").Start(ctx, "checker.Check")
	defer span.End()
	log := u.logger(ctx)

	res, err := u.check(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check")
		if errors.Is(err, ErrDetection) {
			mDetectionErrors.Inc()
		}
		log.Error("version check failed", zap.Error(err))
		return Result{}
	}
	span.SetAttributes(
		attribute.String("version", res.Version),
		attribute.Bool("new", res.IsNewVersion),
	)
	if res.IsNewVersion {
		mNewVersions.Inc()
		log.Info("new version detected", zap.String("version", res.Version))
	} else {
		log.Debug("no new version", zap.String("version", res.Version))
	}
	return res
}

func (u *Usecase) logger(ctx context.Context) *zap.Logger {
	if u.Log == nil {
		return zap.NewNop()
	}
	return obs.WithTrace(ctx, u.Log)
}

func (u *Usecase) check(ctx context.Context) (Result, error) {
	url, err := u.Vendor.DownloadURL(ctx)
	if err != nil {
		return Result{}, err
	}

	extract := version.Extract
	if u.Extractor != nil {
		extract = u.Extractor.Extract
	}
	v, ok := extract(url)
	if !ok {
		return Result{}, fmt.Errorf("%w: no version in %q", ErrDetection, url)
	}

	latest, err := u.Versions.Latest(ctx)
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		latest = nil
	case err != nil:
		return Result{}, fmt.Errorf("load latest: %w", err)
	}
	if latest != nil && !version.IsNewer(latest.Version, v) {
		return Result{Version: v}, nil
	}

	var created *domainversion.Version
	err = u.Tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := u.Versions.Exists(ctx, v)
		if err != nil {
			return fmt.Errorf("version exists: %w", err)
		}
		if exists {
			return nil
		}
		rec, err := u.Versions.Create(ctx, v)
		if err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		data, err := json.Marshal(domainkafka.VersionDetected{
			VersionID:  rec.ID,
			Version:    rec.Version,
			DetectedAt: rec.DetectedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if err := u.Outbox.Enqueue(ctx, OutboxKey(rec.Version), outbox.KindVersionDetected, data); err != nil {
			return fmt.Errorf("enqueue event: %w", err)
		}
		created = rec
		return nil
	})
	if errors.Is(err, postgres.ErrConflict) {
		// another replica stored it first
		return Result{Version: v}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if created == nil {
		return Result{Version: v}, nil
	}
	return Result{IsNewVersion: true, Version: v, Record: created}, nil
}

// Cycle is Check followed by a fan-out when a new version was stored.
func (u *Usecase) Cycle(ctx context.Context) (Result, *notifier.Report) {
	res := u.Check(ctx)
	if !res.IsNewVersion || res.Record == nil || u.Fanout == nil {
		return res, nil
	}
	rep := u.Fanout.NotifyAll(ctx, res.Record)
	return res, &rep
}
