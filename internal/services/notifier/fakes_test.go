package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
	"github.com/NordCoder/Versionwatch/internal/domain/notification"
	"github.com/NordCoder/Versionwatch/internal/domain/preference"
	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

type fakeChannels struct {
	list []*channel.Channel
	err  error
}

func (f *fakeChannels) List(context.Context) ([]*channel.Channel, error) { return f.list, f.err }

type prefKey struct {
	user    string
	channel int64
}

type fakePrefs struct {
	// active is what the listing query returns; prefs is what the re-read sees.
	active  map[int64][]string
	listErr map[int64]error
	prefs   map[prefKey]*preference.Preference
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{
		active:  map[int64][]string{},
		listErr: map[int64]error{},
		prefs:   map[prefKey]*preference.Preference{},
	}
}

func (f *fakePrefs) add(userID string, channelID int64, cfg string, active bool) {
	f.prefs[prefKey{userID, channelID}] = &preference.Preference{
		UserID: userID, ChannelID: channelID, ChannelConfig: json.RawMessage(cfg), IsActive: active,
	}
	f.active[channelID] = append(f.active[channelID], userID)
}

func (f *fakePrefs) ListActiveUserIDsForChannel(_ context.Context, channelID int64) ([]string, error) {
	if err := f.listErr[channelID]; err != nil {
		return nil, err
	}
	return f.active[channelID], nil
}

func (f *fakePrefs) GetForUserChannel(_ context.Context, userID string, channelID int64) (*preference.Preference, error) {
	p, ok := f.prefs[prefKey{userID, channelID}]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return p, nil
}

type fakeUsers struct {
	missing map[string]bool
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	if f.missing[id] {
		return nil, postgres.ErrNotFound
	}
	return &user.User{ID: id, Email: id + "@example.com"}, nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []*notification.History
	err  error
}

func (f *fakeHistory) Record(_ context.Context, h *notification.History) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, h)
	return f.err
}

func (f *fakeHistory) byStatus(s notification.Status) []*notification.History {
	var out []*notification.History
	for _, r := range f.rows {
		if r.Status == s {
			out = append(out, r)
		}
	}
	return out
}

// roundTripFunc lets tests answer requests to hooks.slack.com without a
// network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type slackStub struct {
	calls  atomic.Int32
	failOn string
	bodies []string
	mu     sync.Mutex
}

func (s *slackStub) client() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		s.calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, string(b))
		s.mu.Unlock()
		if s.failOn != "" && strings.Contains(r.URL.Path, s.failOn) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader("invalid_token")),
				Header:     http.Header{},
			}, nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("ok")),
			Header:     http.Header{},
		}, nil
	})}
}

var errTransport = errors.New("connection refused")
