package tokenloader

import (
	"os"
	"path/filepath"
	"testing"

	"tokenstats/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type warnRecorder struct {
	warnings []string
}

func (w *warnRecorder) warn(msg string, _ ...any) {
	w.warnings = append(w.warnings, msg)
}

func TestLoad_Text(t *testing.T) {
	path := writeFile(t, "watchlist.txt", `# tokens to watch
0xA1077a294dDE1B09bB078844df40758a5D0f9a27   # WPLS

not-an-address
0xa1077a294dde1b09bb078844df40758a5d0f9a27
0x95B303987A60C71504D99Aa1b13B4DA07b0790ab
`)
	rec := &warnRecorder{}
	entries, err := NewWatchlistLoader(nil, rec.warn).Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, entity.TokenAddress("0xa1077a294dde1b09bb078844df40758a5d0f9a27"), entries[0].Address)
	assert.Equal(t, entity.TokenAddress("0x95b303987a60c71504d99aa1b13b4da07b0790ab"), entries[1].Address)
	assert.Empty(t, entries[0].Network)
	assert.Len(t, rec.warnings, 1)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "watchlist.json", `[
  {"address": "0xA1077a294dDE1B09bB078844df40758a5D0f9a27", "network": "PulseChain", "label": "WPLS"},
  {"address": "0xA1077a294dDE1B09bB078844df40758a5D0f9a27", "network": "ethereum"},
  {"address": "0xa1077a294dde1b09bb078844df40758a5d0f9a27", "network": "pulsechain"},
  {"address": "0x123"}
]`)
	entries, err := NewWatchlistLoader(nil, nil).Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "pulsechain", entries[0].Network)
	assert.Equal(t, "WPLS", entries[0].Label)
	assert.Equal(t, "ethereum", entries[1].Network)
}

func TestLoad_BadJSON(t *testing.T) {
	path := writeFile(t, "watchlist.json", `{"address": "0x"}`)
	_, err := NewWatchlistLoader(nil, nil).Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal watchlist")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewWatchlistLoader(nil, nil).Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_ExampleWatchlist(t *testing.T) {
	entries, err := NewWatchlistLoader(nil, nil).Load(filepath.Join("..", "..", "..", "config", "watchlist.example.txt"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
