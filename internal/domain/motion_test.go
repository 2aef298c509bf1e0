package domain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlates() []Plate {
	return []Plate{
		{Name: "Pacific", Center: Point{0, -150}, Velocity: Velocity{Lat: 0.02, Lon: 0.05}, ThicknessKm: 70, Density: 2.9},
		{Name: "North American", Center: Point{45, -100}, Velocity: Velocity{Lat: -0.01, Lon: -0.02}, ThicknessKm: 40, Density: 2.7},
		{Name: "Eurasian", Center: Point{55, 100}, Velocity: Velocity{Lat: 0.01, Lon: 0.03}, ThicknessKm: 35, Density: 2.7},
		{Name: "Indo-Australian", Center: Point{-25, 135}, Velocity: Velocity{Lat: 0.04, Lon: 0.06}, ThicknessKm: 50, Density: 2.8},
	}
}

func TestProjectPlates(t *testing.T) {
	moves, err := ProjectPlates(testPlates(), 100)
	require.NoError(t, err)
	require.Len(t, moves, 4)

	pacific := moves[0]
	assert.Equal(t, "Pacific", pacific.Plate)
	assert.InDelta(t, 2, pacific.Future.Lat, 1e-9)
	assert.InDelta(t, -145, pacific.Future.Lon, 1e-9)

	wantKm := kmPerDegree * math.Sqrt(2*2+5*5)
	assert.InDelta(t, wantKm, pacific.DistanceKm, 1e-9)
	assert.InDelta(t, wantKm*cmPerKm/100, pacific.RateCmPerYr, 1e-6)
	assert.Greater(t, pacific.HeadingDeg, 0.0)
	assert.Less(t, pacific.HeadingDeg, 90.0, "moving north-east")
}

func TestProjectPlates_WrapsAndClamps(t *testing.T) {
	plates := []Plate{{Name: "drifter", Center: Point{89, 179}, Velocity: Velocity{Lat: 1, Lon: 1}}}

	moves, err := ProjectPlates(plates, 5)
	require.NoError(t, err)
	assert.Equal(t, 90.0, moves[0].Future.Lat)
	assert.InDelta(t, -176, moves[0].Future.Lon, 1e-9)
}

func TestProjectPlates_InvalidYears(t *testing.T) {
	for _, years := range []float64{0, -1, math.NaN()} {
		_, err := ProjectPlates(testPlates(), years)
		require.ErrorIs(t, err, ErrInvalidSimulationParameters)
	}
}

func TestConvergingPairs(t *testing.T) {
	plates := []Plate{
		{Name: "west", Center: Point{0, -10}, Velocity: Velocity{Lon: 0.01}},
		{Name: "east", Center: Point{0, 10}, Velocity: Velocity{Lon: -0.01}},
		{Name: "away", Center: Point{0, 40}, Velocity: Velocity{Lon: 0.05}},
	}
	moves, err := ProjectPlates(plates, 100)
	require.NoError(t, err)

	pairs := ConvergingPairs(moves)
	require.NotEmpty(t, pairs)

	top := pairs[0]
	assert.Equal(t, "west", top.PlateA)
	assert.Equal(t, "east", top.PlateB)
	assert.InDelta(t, 0.1, top.Ratio, 1e-9)
	assert.InDelta(t, 0, top.EstimatedZone.Lon, 1e-9)
	assert.InDelta(t, top.CurrentKm-top.FutureKm, top.ApproachKm, 1e-9)

	for i := 1; i < len(pairs); i++ {
		assert.GreaterOrEqual(t, pairs[i-1].Ratio, pairs[i].Ratio)
		assert.Less(t, pairs[i].FutureKm, pairs[i].CurrentKm)
	}
	for _, p := range pairs {
		assert.False(t, p.PlateA == "east" && p.PlateB == "away", "diverging pair reported")
	}
}

func TestHotspots(t *testing.T) {
	moves, err := ProjectPlates(testPlates(), 100)
	require.NoError(t, err)

	spots, err := Hotspots(context.Background(), moves, 10, 50, 0)
	require.NoError(t, err)
	require.NotEmpty(t, spots)
	for i, s := range spots {
		assert.Greater(t, s.Stress, 50.0)
		if i > 0 {
			assert.GreaterOrEqual(t, spots[i-1].Stress, s.Stress)
		}
	}

	assert.Zero(t, PlateLoadingAt(Point{-89, 0}, moves), "no plate centre within range of the pole")

	_, err = Hotspots(context.Background(), moves, 0, 50, 0)
	require.ErrorIs(t, err, ErrInvalidSimulationParameters)
}

func TestHotspots_InvalidGrid(t *testing.T) {
	moves, err := ProjectPlates(testPlates(), 100)
	require.NoError(t, err)

	tests := []struct {
		name       string
		resolution float64
		threshold  float64
	}{
		{"zero resolution", 0, 0},
		{"finer than minimum", 0.01, -1},
		{"just below minimum", MinHotspotResolutionDeg / 2, 0},
		{"coarser than a hemisphere", 91, 0},
		{"NaN resolution", math.NaN(), 0},
		{"NaN threshold", 10, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spots, err := Hotspots(context.Background(), moves, tt.resolution, tt.threshold, 0)
			require.ErrorIs(t, err, ErrInvalidSimulationParameters)
			assert.Nil(t, spots)
		})
	}
}

func TestHotspots_LimitKeepsStrongest(t *testing.T) {
	moves, err := ProjectPlates(testPlates(), 100)
	require.NoError(t, err)

	all, err := Hotspots(context.Background(), moves, MinHotspotResolutionDeg, -1, 0)
	require.NoError(t, err)
	require.Greater(t, len(all), 5)

	top, err := Hotspots(context.Background(), moves, MinHotspotResolutionDeg, -1, 5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Equal(t, all[:5], top)
}

func TestHotspots_StopsOnCancel(t *testing.T) {
	moves, err := ProjectPlates(testPlates(), 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spots, err := Hotspots(ctx, moves, MinHotspotResolutionDeg, -1, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, spots)
}
