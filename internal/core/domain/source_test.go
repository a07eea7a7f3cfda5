package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *SourceIndex {
	return NewSourceIndex([]Source{
		{
			CanonicalName: "Ziraat Bankası",
			Aliases:       []string{"bankkart", "ziraat"},
			Hidden:        true,
			Scopes:        []string{"app"},
		},
		{
			CanonicalName: "Akbank",
			Aliases:       []string{"akbank kampanya"},
			Scopes:        []string{"app", "web"},
		},
	}, "spam kaynak")
}

func TestNormalizeKeyFolding(t *testing.T) {
	cases := map[string]string{
		"  Ziraat   Bankası ": "ziraat bankasi",
		"ZİRAAT BANKASI":      "ziraat bankasi",
		"BANKKART":            "bankkart",
		"Şekerbank Ç-Ğ-Ü":     "sekerbank c-g-u",
		"":                    "",
		"   ":                 "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeKey(raw), "raw %q", raw)
	}
}

func TestCanonicalizeSameKeySameResult(t *testing.T) {
	idx := testIndex()
	variants := []string{"bankkart", "BANKKART", " Bankkart ", "BANKKART\t"}
	for _, v := range variants {
		assert.Equal(t, "Ziraat Bankası", idx.Canonicalize(v))
		assert.True(t, idx.IsHidden(v))
	}
	assert.Equal(t, idx.IsHidden("bankkart"), idx.IsHidden("BANKKART"))
}

func TestCanonicalizeIdempotent(t *testing.T) {
	idx := testIndex()
	for _, raw := range []string{"bankkart", "Ziraat Bankası", "akbank kampanya", "Bilinmeyen Banka"} {
		once := idx.Canonicalize(raw)
		assert.Equal(t, once, idx.Canonicalize(once), "raw %q", raw)
	}
}

func TestCanonicalizeUnknownPassthrough(t *testing.T) {
	idx := testIndex()
	assert.Equal(t, "Bilinmeyen Banka", idx.Canonicalize("Bilinmeyen Banka"))
	assert.False(t, idx.IsHidden("Bilinmeyen Banka"))
}

func TestHiddenKeyWithoutAlias(t *testing.T) {
	idx := testIndex()
	// Hidden via the extra key set, not an alias of anything.
	assert.True(t, idx.IsHidden("SPAM  KAYNAK"))
	assert.Equal(t, "spam kaynak", NormalizeKey("SPAM  KAYNAK"))
	// Passthrough still applies: hidden does not imply canonical mapping.
	assert.Equal(t, "SPAM  KAYNAK", idx.Canonicalize("SPAM  KAYNAK"))
}

func TestLookup(t *testing.T) {
	idx := testIndex()
	s, ok := idx.Lookup("ZİRAAT")
	require.True(t, ok)
	assert.Equal(t, "Ziraat Bankası", s.CanonicalName)
	assert.True(t, s.Hidden)

	_, ok = idx.Lookup("yok boyle banka")
	assert.False(t, ok)
}
