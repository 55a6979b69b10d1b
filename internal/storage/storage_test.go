package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "farmai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id string, at time.Time, crop string) Record {
	return Record{
		Summary: Summary{
			ID: id, CreatedAt: at, Lat: 40.1, Lng: -75.2, AreaAcres: 12.5,
			SoilName: "Hagerstown silt loam", TopCrop: crop, TopScore: 88,
		},
		Response: wire.AnalyzeResponse{
			AnalysisID: id,
			Centroid:   entities.Coordinates{Lat: 40.1, Lng: -75.2},
			AreaAcres:  12.5,
			CropMatrix: []wire.CropEntry{{Crop: crop, SuitabilityScore: 88, EstimatedYieldRevenuePerAcre: 1200}},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, record("a1", at, "Tomatoes")))
	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes", got.TopCrop)
	assert.Equal(t, 88, got.TopScore)
	assert.True(t, at.Equal(got.CreatedAt))
	assert.Equal(t, "a1", got.Response.AnalysisID)
	require.Len(t, got.Response.CropMatrix, 1)
	assert.Equal(t, 1200.0, got.Response.CropMatrix[0].EstimatedYieldRevenuePerAcre)
}

func TestGetUnknown(t *testing.T) {
	_, err := openTemp(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplaces(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, record("a1", at, "Tomatoes")))
	require.NoError(t, s.Save(ctx, record("a1", at, "Garlic")))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Garlic", got.TopCrop)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, record("old", base, "Basil")))
	require.NoError(t, s.Save(ctx, record("new", base.Add(time.Hour), "Basil")))
	require.NoError(t, s.Save(ctx, record("mid", base.Add(time.Minute), "Basil")))

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	require.NoError(t, s.Ping(ctx))
}
