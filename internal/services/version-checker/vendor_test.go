package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorClient(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr string
	}{
		{name: "ok", status: 200, body: `{"downloadUrl":"https://x/Cursor-0.47.0-x86_64.AppImage"}`, want: "https://x/Cursor-0.47.0-x86_64.AppImage"},
		{name: "server error", status: 503, body: `oops`, wantErr: "503"},
		{name: "bad json", status: 200, body: `{"downloadUrl":`, wantErr: "decode response"},
		{name: "missing field", status: 200, body: `{"url":"x"}`, wantErr: "no downloadUrl"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewVendorClient(srv.Client(), srv.URL).DownloadURL(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDetection)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVendorClientUnreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewVendorClient(http.DefaultClient, url).DownloadURL(context.Background())
	assert.ErrorIs(t, err, ErrDetection)
}
