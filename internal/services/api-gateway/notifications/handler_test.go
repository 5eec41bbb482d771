package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
	"github.com/NordCoder/Versionwatch/internal/domain/notification"
	"github.com/NordCoder/Versionwatch/internal/domain/preference"
	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/auth"
)

type memChannels struct{ list []*channel.Channel }

func (m *memChannels) List(context.Context) ([]*channel.Channel, error) { return m.list, nil }

func (m *memChannels) GetByID(_ context.Context, id int64) (*channel.Channel, error) {
	for _, c := range m.list {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (m *memChannels) GetByName(_ context.Context, name string) (*channel.Channel, error) {
	for _, c := range m.list {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, postgres.ErrNotFound
}

type memPrefs struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*preference.Preference
}

func newMemPrefs() *memPrefs { return &memPrefs{rows: map[int64]*preference.Preference{}} }

func (m *memPrefs) Create(_ context.Context, userID string, channelID int64, cfg json.RawMessage) (*preference.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.UserID == userID && p.ChannelID == channelID {
			return nil, postgres.ErrConflict
		}
	}
	m.next++
	p := &preference.Preference{ID: m.next, UserID: userID, ChannelID: channelID, ChannelConfig: cfg, IsActive: true, CreatedAt: time.Now()}
	m.rows[p.ID] = p
	return p, nil
}

func (m *memPrefs) Update(_ context.Context, id int64, upd preference.Update) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	if upd.ChannelConfig != nil {
		p.ChannelConfig = *upd.ChannelConfig
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	return true, nil
}

func (m *memPrefs) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memPrefs) GetByID(_ context.Context, id int64) (*preference.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		return p, nil
	}
	return nil, postgres.ErrNotFound
}

func (m *memPrefs) ListForUser(_ context.Context, userID string) ([]*preference.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*preference.Preference
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrefs) GetForUserChannel(_ context.Context, userID string, channelID int64) (*preference.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.UserID == userID && p.ChannelID == channelID {
			return p, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (m *memPrefs) ListActiveUserIDsForChannel(context.Context, int64) ([]string, error) {
	return nil, nil
}

type memHistory struct{ rows []*notification.History }

func (m *memHistory) Record(_ context.Context, h *notification.History) error {
	m.rows = append(m.rows, h)
	return nil
}

func (m *memHistory) ListByUser(_ context.Context, userID string, limit int) ([]*notification.History, error) {
	var out []*notification.History
	for _, h := range m.rows {
		if h.UserID == userID && len(out) < limit {
			out = append(out, h)
		}
	}
	return out, nil
}

type spyTester struct {
	err   error
	calls int
	raw   []byte
}

func (s *spyTester) SendTest(_ context.Context, _ *channel.Channel, _ *user.User, raw []byte) error {
	s.calls++
	s.raw = raw
	return s.err
}

const (
	alice = "11111111-1111-1111-1111-111111111111"
	bob   = "22222222-2222-2222-2222-222222222222"
)

// fakeAuthn trusts the X-User header so tests can act as any user.
func fakeAuthn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User")
		if id == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), &user.User{ID: id, Email: id + "@x.io"})))
	})
}

type fixture struct {
	h      http.Handler
	prefs  *memPrefs
	hist   *memHistory
	tester *spyTester
}

func newFixture() *fixture {
	f := &fixture{prefs: newMemPrefs(), hist: &memHistory{}, tester: &spyTester{}}
	chans := &memChannels{list: []*channel.Channel{
		{ID: 1, Name: "slack", Config: json.RawMessage(`{"type":"webhook"}`)},
		{ID: 2, Name: "telegram", Config: json.RawMessage(`{"type":"bot"}`)},
		{ID: 3, Name: "pager"},
	}}
	r := chi.NewRouter()
	NewHandler(Deps{Channels: chans, Preferences: f.prefs, History: f.hist, Tester: f.tester}).Routes(r, fakeAuthn)
	f.h = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, as, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if as != "" {
		req.Header.Set("X-User", as)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

const slackCfg = `{"channelId":1,"channelConfig":{"webhook":"https://hooks.slack.com/services/T/B/X"}}`

func TestChannelsIsPublic(t *testing.T) {
	t.Parallel()
	f := newFixture()
	code, body := f.do(t, http.MethodGet, "/channels", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 3)
}

func TestPreferencesRequireAuth(t *testing.T) {
	t.Parallel()
	f := newFixture()
	code, _ := f.do(t, http.MethodGet, "/preferences", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreatePreference(t *testing.T) {
	t.Parallel()
	f := newFixture()

	code, body := f.do(t, http.MethodPost, "/preferences", alice, slackCfg)
	require.Equal(t, http.StatusCreated, code, body)

	code, _ = f.do(t, http.MethodPost, "/preferences", alice, slackCfg)
	assert.Equal(t, http.StatusConflict, code)

	code, body = f.do(t, http.MethodPost, "/preferences", alice, `{"channelId":1,"channelConfig":{"webhook":"https://evil.example/hook"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "hooks.slack.com")

	code, _ = f.do(t, http.MethodPost, "/preferences", alice, `{"channelId":2,"channelConfig":{"chatId":42}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/preferences", alice, `{"channelId":2,"channelConfig":{"chatId":42,"botToken":"123:abc"}}`)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = f.do(t, http.MethodPost, "/preferences", alice, `{"channelId":99,"channelConfig":{}}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPost, "/preferences", alice, `{"channelId":3,"channelConfig":{"x":1}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/preferences", alice, `{"channelConfig":{}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = f.do(t, http.MethodGet, "/preferences", alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)

	code, body = f.do(t, http.MethodGet, "/preferences", bob, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"])
}

func TestForeignPreferenceIsNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture()
	p, err := f.prefs.Create(context.Background(), alice, 1, json.RawMessage(`{"webhook":"https://hooks.slack.com/a"}`))
	require.NoError(t, err)
	path := "/preferences/" + itoa(p.ID)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPut, path, `{"isActive":false}`},
		{http.MethodDelete, path, ""},
		{http.MethodPost, "/test/" + itoa(p.ID), ""},
	}
	for _, c := range cases {
		code, body := f.do(t, c.method, c.path, bob, c.body)
		assert.Equal(t, http.StatusNotFound, code, c.method)
		assert.Equal(t, notOwned, body["error"], c.method)
	}

	got, err := f.prefs.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Zero(t, f.tester.calls)

	code, body := f.do(t, http.MethodDelete, "/preferences/999", alice, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, notOwned, body["error"])

	code, _ = f.do(t, http.MethodDelete, "/preferences/abc", alice, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateAndDeleteOwned(t *testing.T) {
	t.Parallel()
	f := newFixture()
	p, err := f.prefs.Create(context.Background(), alice, 1, json.RawMessage(`{"webhook":"https://hooks.slack.com/a"}`))
	require.NoError(t, err)
	path := "/preferences/" + itoa(p.ID)

	code, _ := f.do(t, http.MethodPut, path, alice, `{"isActive":false}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, p.IsActive)

	code, _ = f.do(t, http.MethodPut, path, alice, `{"channelConfig":{"webhook":"http://nope"}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPut, path, alice, `{"channelConfig":{"webhook":"https://hooks.slack.com/b"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"webhook":"https://hooks.slack.com/b"}`, string(p.ChannelConfig))

	code, _ = f.do(t, http.MethodDelete, path, alice, "")
	require.Equal(t, http.StatusOK, code)
	_, err = f.prefs.GetByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestSendTest(t *testing.T) {
	t.Parallel()
	f := newFixture()
	p, err := f.prefs.Create(context.Background(), alice, 1, json.RawMessage(`{"webhook":"https://hooks.slack.com/a"}`))
	require.NoError(t, err)

	code, _ := f.do(t, http.MethodPost, "/test/"+itoa(p.ID), alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, f.tester.calls)
	assert.JSONEq(t, `{"webhook":"https://hooks.slack.com/a"}`, string(f.tester.raw))
	assert.Empty(t, f.hist.rows)

	f.tester.err = errors.New("Slack API error: 404 - no_team")
	code, body := f.do(t, http.MethodPost, "/test/"+itoa(p.ID), alice, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, body["error"], "no_team")
}

func TestSendTestRejectsBadStoredConfig(t *testing.T) {
	t.Parallel()
	f := newFixture()
	p, err := f.prefs.Create(context.Background(), alice, 1, json.RawMessage(`{"webhook":"https://hooks.slack.com/a"}`))
	require.NoError(t, err)

	for _, sent := range []error{
		fmt.Errorf("%w: empty config", channel.ErrInvalidConfig),
		fmt.Errorf("%w: pager", channel.ErrUnknownChannel),
	} {
		f.tester.err = sent
		code, body := f.do(t, http.MethodPost, "/test/"+itoa(p.ID), alice, "")
		assert.Equal(t, http.StatusBadRequest, code, sent.Error())
		assert.Equal(t, sent.Error(), body["error"])
	}
}

func TestHistoryIsScopedToCaller(t *testing.T) {
	t.Parallel()
	f := newFixture()
	for _, uid := range []string{alice, alice, bob} {
		require.NoError(t, f.hist.Record(context.Background(), &notification.History{UserID: uid, ChannelID: 1, VersionID: 1, Status: notification.StatusSuccess}))
	}
	code, body := f.do(t, http.MethodGet, "/history", alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
