package settings

import (
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"f1racetelemetry/pkg/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := NewManager(filepath.Join(t.TempDir(), "settings.db"), 2, log)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestGetReturnsDefaults(t *testing.T) {
	m := newTestManager(t)

	s, err := m.Get("overlay")
	require.NoError(t, err)
	assert.Equal(t, model.DisplaySettings{ClientID: "overlay", NumAdjacentCars: 2}, s)
	assert.Equal(t, 2, m.NumAdjacentCars(""))
}

func TestSaveAndGet(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Save(model.DisplaySettings{ClientID: "overlay", NumAdjacentCars: 5}))
	s, err := m.Get("overlay")
	require.NoError(t, err)
	assert.Equal(t, 5, s.NumAdjacentCars)

	require.NoError(t, m.Save(model.DisplaySettings{ClientID: "overlay", NumAdjacentCars: 0}))
	assert.Equal(t, 0, m.NumAdjacentCars("overlay"))
	assert.Equal(t, 2, m.NumAdjacentCars("race-table"))
}

func TestSaveQuotesClientID(t *testing.T) {
	m := newTestManager(t)

	id := "o'brien'; DROP TABLE display_settings; --"
	require.NoError(t, m.Save(model.DisplaySettings{ClientID: id, NumAdjacentCars: 3}))
	assert.Equal(t, 3, m.NumAdjacentCars(id))
}

func TestSaveRejectsInvalid(t *testing.T) {
	m := newTestManager(t)

	err := m.Save(model.DisplaySettings{ClientID: "", NumAdjacentCars: 1})
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	err = m.Save(model.DisplaySettings{ClientID: "overlay", NumAdjacentCars: -1})
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	err = m.Save(model.DisplaySettings{ClientID: "overlay", NumAdjacentCars: math.MaxInt})
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Equal(t, 2, m.NumAdjacentCars("overlay"))
}
