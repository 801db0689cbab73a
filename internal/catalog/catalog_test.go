package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scootshop/checkout-api/internal/catalog"
)

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := catalog.New([]catalog.Entry{
		{Code: "IX3", Name: "IX3"},
		{Code: "ix3", Name: "IX3 again"},
	})
	require.Error(t, err)
}

func TestNewRejectsEmptyCode(t *testing.T) {
	_, err := catalog.New([]catalog.Entry{{Code: "  ", Name: "nameless"}})
	require.Error(t, err)
}

func TestNewRejectsConflictingAlias(t *testing.T) {
	_, err := catalog.New([]catalog.Entry{
		{Code: "IX3", Aliases: []string{"HB-1"}},
		{Code: "T10", Aliases: []string{"hb-1"}},
	})
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	payload := `[{"code":"ix3","name":"IX3","price":"399.00","currency":"EUR","aliases":["HB-9"]}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	entry, ok := c.Get("IX3")
	require.True(t, ok)
	require.Equal(t, "399.00", entry.Price)

	entry, ok = c.Resolve("hb-9")
	require.True(t, ok)
	require.Equal(t, "IX3", entry.Code)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()
	require.Equal(t, len(catalog.DefaultEntries()), c.Len())

	entry, ok := c.Get("IX3")
	require.True(t, ok)
	require.Equal(t, "399.00", entry.Price)
	require.Equal(t, "EUR", entry.Currency)
}
