package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		current   string
		candidate string
		want      bool
	}{
		{name: "patch bump", current: "1.2.0", candidate: "1.2.1", want: true},
		{name: "minor bump beats patch", current: "0.46.11", candidate: "0.47.0", want: true},
		{name: "older", current: "1.2.3", candidate: "1.2.2", want: false},
		{name: "equal", current: "1.2.3", candidate: "1.2.3", want: false},
		{name: "padding equal", current: "1.2", candidate: "1.2.0", want: false},
		{name: "padding reverse", current: "1.2.0", candidate: "1.2", want: false},
		{name: "longer is newer", current: "1.2", candidate: "1.2.0.1", want: true},
		{name: "numeric not lexical", current: "1.9.0", candidate: "1.10.0", want: true},
		{name: "garbage segment is zero", current: "1.x.0", candidate: "1.0.1", want: true},
		{name: "empty current", current: "", candidate: "0.0.1", want: true},
		{name: "both empty", current: "", candidate: "", want: false},
		{name: "overflowing segment is huge", current: "1.5", candidate: "1.99999999999999999999", want: true},
		{name: "overflowing segment not older", current: "1.99999999999999999999", candidate: "1.5", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNewer(tt.current, tt.candidate))
		})
	}
}

func TestIsNewerReflexiveFalse(t *testing.T) {
	t.Parallel()
	for _, v := range []string{"0", "1.0", "1.2.3", "10.20.30.40", "abc", ""} {
		assert.False(t, IsNewer(v, v), v)
	}
}

func TestIsNewerAntisymmetric(t *testing.T) {
	t.Parallel()
	vs := []string{"0.1.0", "0.1.1", "0.2.0", "1.0.0", "1.0.10", "1.1.0", "2.0.0"}
	for _, a := range vs {
		for _, b := range vs {
			if a == b {
				continue
			}
			ab, ba := IsNewer(a, b), IsNewer(b, a)
			assert.True(t, ab != ba, "exactly one of IsNewer(%s,%s) / IsNewer(%s,%s)", a, b, b, a)
		}
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Compare("1.2", "1.2.0"))
	assert.Equal(t, -1, Compare("1.2.0", "1.2.1"))
	assert.Equal(t, 1, Compare("2", "1.99.99"))
}

func TestExtract(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{name: "linux appimage", url: "https://downloads.cursor.com/production/abc/linux/x64/Cursor-0.46.11-x86_64.AppImage", want: "0.46.11", ok: true},
		{name: "short host", url: "https://x/Cursor-1.2.3-linux", want: "1.2.3", ok: true},
		{name: "query param", url: "https://x/dl?file=Cursor-2.0.1.exe", want: "2.0.1", ok: true},
		{name: "no prefix", url: "https://x/builds/1.2.3/app.tar.gz", ok: false},
		{name: "other product", url: "https://x/Editor-1.2.3-linux", ok: false},
		{name: "prefix glued to word", url: "https://x/NotCursor-1.2.3", ok: false},
		{name: "two segments only", url: "https://x/Cursor-1.2-linux", ok: false},
		{name: "empty", url: "", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Extract(tt.url)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	t.Parallel()
	url := "https://x/Cursor-1.2.3-linux"
	first, ok := Extract(url)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := Extract(url)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestNewExtractorCustomProduct(t *testing.T) {
	t.Parallel()
	e := NewExtractor("Zed")
	got, ok := e.Extract("https://x/Zed-0.150.4-linux.tar.gz")
	require.True(t, ok)
	assert.Equal(t, "0.150.4", got)

	_, ok = e.Extract("https://x/Cursor-1.2.3")
	assert.False(t, ok)
}
