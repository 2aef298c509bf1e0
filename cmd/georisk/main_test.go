package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("MAPBOX_ENABLED", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestAssessCommand_Site(t *testing.T) {
	out, err := execute(t, "assess", "--site", "san francisco", "--magnitude", "7", "--depth", "10")
	require.NoError(t, err)

	var ev domain.AssessmentEvent
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, "San Francisco", ev.Place)
	assert.Equal(t, "Pacific Ring of Fire 2", ev.Assessment.NearestBoundary)
}

func TestSimulateCommand_Summary(t *testing.T) {
	out, err := execute(t, "simulate", "--horizon", "50", "--step", "10")
	require.NoError(t, err)

	var report domain.SimulationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 6, report.States)
	assert.Len(t, report.Segments, 15)
}

func TestSimulateCommand_InvalidStep(t *testing.T) {
	_, err := execute(t, "simulate", "--horizon", "50", "--step", "0")
	require.ErrorIs(t, err, domain.ErrInvalidSimulationParameters)
}

func TestPlatesCommand(t *testing.T) {
	out, err := execute(t, "plates", "--years", "100", "--limit", "3")
	require.NoError(t, err)

	var body struct {
		Movements []domain.PlateMovement `json:"movements"`
		Hotspots  []domain.Hotspot       `json:"hotspots"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body.Movements, 4)
	assert.LessOrEqual(t, len(body.Hotspots), 3)
}

func TestPlatesCommand_GridTooFine(t *testing.T) {
	_, err := execute(t, "plates", "--years", "100", "--resolution", "0.01", "--threshold", "-1")
	require.ErrorIs(t, err, domain.ErrInvalidSimulationParameters)
}

func TestCatalogValidateCommand(t *testing.T) {
	out, err := execute(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "All validations passed.")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "volcanoes.yaml"),
		[]byte("volcanoes:\n  - {id: a, name: A, lat: 95, lon: 0, vei: 1, status: active}\n"), 0o600))

	out, err = execute(t, "catalog", "validate", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL")
}
