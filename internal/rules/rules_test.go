package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promofeed/internal/core/domain"
)

func TestDefaultIsValid(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Tiers.MainMin, r.Tiers.LightMin)
	assert.Greater(t, r.Quality.Threshold, 0.0)
	assert.NotEmpty(t, r.Categories)
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
tiers:
  main_min: 80
  light_min: 50
hidden_keys:
  - "spam kaynak"
sources:
  - canonical_name: "Ziraat Bankası"
    aliases: ["bankkart"]
    hidden: true
    scopes: ["app"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80.0, r.Tiers.MainMin)
	assert.Equal(t, 50.0, r.Tiers.LightMin)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Quality.Threshold, r.Quality.Threshold)

	sources := r.DomainSources()
	require.Len(t, sources, 1)
	assert.Equal(t, "Ziraat Bankası", sources[0].CanonicalName)
	assert.True(t, sources[0].Hidden)

	idx := domain.NewSourceIndex(sources, r.HiddenKeys...)
	assert.True(t, idx.IsHidden("BANKKART"))
	assert.True(t, idx.IsHidden("Spam  Kaynak"))
}

func TestLoadRejectsNonMonotonicBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
tiers:
  main_min: 30
  light_min: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestClassifierConstruction(t *testing.T) {
	r := Default()
	cl := r.Classifier()
	tier, _ := cl.Classify(domain.Campaign{Category: "kategori"}, false)
	assert.Equal(t, domain.TierCategory, tier)
}
