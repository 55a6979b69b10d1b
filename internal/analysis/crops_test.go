package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCrops(t *testing.T) {
	crops := DefaultCrops()
	require.NotEmpty(t, crops)
	assert.Equal(t, "Tomatoes", crops[0].Name)
	for _, c := range crops {
		assert.NoError(t, validateCrop(c), c.Name)
	}
}

func TestParseCropsRejectsBadRows(t *testing.T) {
	_, err := ParseCrops([]byte("[]"))
	assert.ErrorIs(t, err, ErrInvalidCrop)

	_, err = ParseCrops([]byte("- name: Bad\n  phMin: 7\n  phMax: 6\n  zoneMin: 3a\n  zoneMax: 5a\n"))
	assert.ErrorIs(t, err, ErrInvalidCrop)

	_, err = ParseCrops([]byte("- name: Bad\n  phMin: 6\n  phMax: 7\n  zoneMin: 11a\n  zoneMax: 5a\n"))
	assert.ErrorIs(t, err, ErrUnknownZone)

	_, err = ParseCrops([]byte("- name: Bad\n  phMin: 6\n  phMax: 7\n  zoneMin: 8a\n  zoneMax: 5a\n"))
	assert.ErrorIs(t, err, ErrInvalidCrop)
}

func TestLoadCropsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: Okra\n  phMin: 6\n  phMax: 7\n  zoneMin: 6a\n  zoneMax: 10b\n  waterNeed: Low\n"), 0o600))

	crops, err := LoadCrops(path)
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Equal(t, "Okra", crops[0].Name)

	_, err = LoadCrops(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadCrops("")
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCrops()), len(def))
}
