package checker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NordCoder/Versionwatch/internal/domain/outbox"
	"github.com/NordCoder/Versionwatch/internal/domain/version"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/notifier"
)

type memVersions struct {
	mu        sync.Mutex
	rows      []*version.Version
	latestErr error
	createErr error
}

func (m *memVersions) Latest(context.Context) (*version.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	var best *version.Version
	for _, r := range m.rows {
		if best == nil || r.DetectedAt.After(best.DetectedAt) ||
			(r.DetectedAt.Equal(best.DetectedAt) && r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, postgres.ErrNotFound
	}
	return best, nil
}

func (m *memVersions) Exists(_ context.Context, v string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Version == v {
			return true, nil
		}
	}
	return false, nil
}

func (m *memVersions) Create(_ context.Context, v string) (*version.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	rec := &version.Version{ID: int64(len(m.rows) + 1), Version: v, DetectedAt: time.Now()}
	m.rows = append(m.rows, rec)
	return rec, nil
}

func (m *memVersions) seed(v string, at time.Time) {
	m.rows = append(m.rows, &version.Version{ID: int64(len(m.rows) + 1), Version: v, DetectedAt: at})
}

type enqueued struct {
	key  string
	kind outbox.Kind
	data []byte
}

type memOutbox struct {
	items []enqueued
	err   error
}

func (m *memOutbox) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, enqueued{key, kind, data})
	return nil
}

// passTx runs fn inline and undoes version inserts when fn fails.
type passTx struct{ versions *memVersions }

func (p passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.versions.mu.Lock()
	n := len(p.versions.rows)
	p.versions.mu.Unlock()
	if err := fn(ctx); err != nil {
		p.versions.mu.Lock()
		p.versions.rows = p.versions.rows[:n]
		p.versions.mu.Unlock()
		return err
	}
	return nil
}

type stubFetcher struct {
	url string
	err error
}

func (s stubFetcher) DownloadURL(context.Context) (string, error) { return s.url, s.err }

type spyFanout struct {
	calls []*version.Version
}

func (s *spyFanout) NotifyAll(_ context.Context, v *version.Version) notifier.Report {
	s.calls = append(s.calls, v)
	return notifier.Report{Version: v.Version, Channels: 1, Attempted: 1, Succeeded: 1}
}

var errDB = errors.New("db down")
