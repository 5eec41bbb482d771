package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHandlerRegisterLogin(t *testing.T) {
	t.Parallel()
	uc, _ := newTestUC(nil)
	r := chi.NewRouter()
	NewHandler(uc, zap.NewNop()).Routes(r)

	code, env := do(t, r, http.MethodPost, "/register", `{"email":"a@b.io","name":"Ada"}`, nil)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)
	var resp struct {
		User  struct{ ID, Email string }
		Token string
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "a@b.io", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	code, env = do(t, r, http.MethodPost, "/register", `{"email":"a@b.io"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, ErrEmailExists.Error(), env.Error)

	code, _ = do(t, r, http.MethodPost, "/register", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodPost, "/login", `{"email":"a@b.io"}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, _ = do(t, r, http.MethodPost, "/login", `{"email":"nobody@b.io"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, r, http.MethodPost, "/login", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	uc, users := newTestUC(nil)
	u, token, err := uc.Register(t.Context(), "a@b.io", nil)
	require.NoError(t, err)

	protected := Middleware(uc.ParseAccess, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := UserFromCtx(r.Context())
		require.True(t, ok)
		_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: json.RawMessage(`"` + got.ID + `"`)})
	}))

	code, env := do(t, protected, http.MethodGet, "/", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"`+u.ID+`"`, string(env.Data))

	code, _ = do(t, protected, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, protected, http.MethodGet, "/", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	delete(users.byID, u.ID)
	code, env = do(t, protected, http.MethodGet, "/", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not found", env.Error)
}
