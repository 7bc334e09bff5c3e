package analysis

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrandCSV(t *testing.T) {
	table, err := ParseBrandCSV(strings.NewReader("1,paypal.com\n2,google.com\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	official, ok := table.Official("paypal")
	assert.True(t, ok)
	assert.Equal(t, "paypal.com", official)
}

func TestParseBrandCSVFirstSeenWins(t *testing.T) {
	table, err := ParseBrandCSV(strings.NewReader("1,paypal.com\n2,paypal.co.uk\n"))
	require.NoError(t, err)

	official, _ := table.Official("paypal")
	assert.Equal(t, "paypal.com", official)
}

func TestParseBrandCSVEmpty(t *testing.T) {
	_, err := ParseBrandCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func writeBrandFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brands.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBrandTableRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1,netflix.com\n"))
	}))
	defer srv.Close()

	table := LoadBrandTable(srv.URL, "does-not-exist.csv")
	assert.Equal(t, 1, table.Len())
}

func TestLoadBrandTableFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\"unclosed quote\n")) // malformed CSV
	}))
	defer srv.Close()

	local := writeBrandFile(t, "1,chase.com\n")
	table := LoadBrandTable(srv.URL, local)

	official, ok := table.Official("chase")
	assert.True(t, ok)
	assert.Equal(t, "chase.com", official)
}

func TestLoadBrandTableBothFailingYieldsEmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	table := LoadBrandTable(srv.URL, "does-not-exist.csv")
	assert.Equal(t, 0, table.Len())
}
