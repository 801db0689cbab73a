package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scootshop/checkout-api/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Entry{
		{Code: "IX3", Name: "IX3", Price: "399.00", Currency: "EUR"},
		{Code: "T10", Name: "T10", Price: "450.00", Currency: "EUR"},
		{Code: "T30", Name: "T30", Price: "899.00", Currency: "EUR", Aliases: []string{"HB-88421"}},
	})
	require.NoError(t, err)
	return c
}

func TestResolveExactMatch(t *testing.T) {
	c := testCatalog(t)

	entry, ok := c.Resolve("IX3")
	require.True(t, ok)
	require.Equal(t, "IX3", entry.Code)

	// Case and surrounding whitespace are irrelevant.
	entry, ok = c.Resolve("  ix3 ")
	require.True(t, ok)
	require.Equal(t, "IX3", entry.Code)
}

func TestResolveAlias(t *testing.T) {
	c := testCatalog(t)

	entry, ok := c.Resolve("hb-88421")
	require.True(t, ok)
	require.Equal(t, "T30", entry.Code)
}

func TestResolveSubstringFallback(t *testing.T) {
	c := testCatalog(t)

	entry, ok := c.Resolve("", "Pack IX3 Pro Edition")
	require.True(t, ok)
	require.Equal(t, "IX3", entry.Code)
}

func TestResolveExactBeatsSubstringAcrossFields(t *testing.T) {
	c := testCatalog(t)

	// An exact hit on a later candidate still wins over a substring hit in
	// an earlier one.
	entry, ok := c.Resolve("bundle with T10 charger", "IX3")
	require.True(t, ok)
	require.Equal(t, "IX3", entry.Code)
}

func TestResolvePriorityOrder(t *testing.T) {
	c := testCatalog(t)

	entry, ok := c.Resolve("T10", "IX3")
	require.True(t, ok)
	require.Equal(t, "T10", entry.Code)
}

func TestResolveLongerCodeWinsSubstring(t *testing.T) {
	c := testCatalog(t)

	// "T30" and "T10" never collide, but a candidate containing both should
	// deterministically pick one; codes are scanned longest-first, ties
	// lexicographic.
	entry, ok := c.Resolve("combo T10 + T30")
	require.True(t, ok)
	require.Equal(t, "T10", entry.Code)
}

func TestResolveNoMatch(t *testing.T) {
	c := testCatalog(t)

	_, ok := c.Resolve("gift card", "something else entirely")
	require.False(t, ok)
}

func TestResolveDeterministic(t *testing.T) {
	c := testCatalog(t)

	for i := 0; i < 10; i++ {
		entry, ok := c.Resolve("Pack IX3 Pro Edition")
		require.True(t, ok)
		require.Equal(t, "IX3", entry.Code)
	}
}

func TestResolveEmptyCatalog(t *testing.T) {
	var c *catalog.Catalog
	_, ok := c.Resolve("IX3")
	require.False(t, ok)
}
