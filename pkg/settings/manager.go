package settings

import (
	"database/sql"
	"log/slog"
	"sync"

	"f1racetelemetry/pkg/model"
	"f1racetelemetry/pkg/racestate"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var ErrInvalidSettings = errors.New("invalid display settings")

// Manager stores the display preferences of each web client.
type Manager struct {
	db              *sql.DB
	mu              sync.Mutex
	log             *slog.Logger
	numAdjacentCars int
}

// NewManager opens the sqlite database at dbName. numAdjacentCars is returned
// for clients without stored preferences.
func NewManager(dbName string, numAdjacentCars int, log *slog.Logger) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbName)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", dbName)
	}

	if _, err = db.Exec(buildCreateDisplaySettingsTable()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init database")
	}

	return &Manager{
		db:              db,
		log:             log,
		numAdjacentCars: numAdjacentCars,
	}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.Close()
}

func (m *Manager) Defaults(clientID string) model.DisplaySettings {
	return model.DisplaySettings{ClientID: clientID, NumAdjacentCars: m.numAdjacentCars}
}

// Get returns the stored settings of a client, or the defaults.
func (m *Manager) Get(clientID string) (model.DisplaySettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, args, read := buildSelectDisplaySettingsCommand(clientID)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return m.Defaults(clientID), errors.Wrapf(err, "reading settings of %s", clientID)
	}
	s, found, err := read(rows)
	if err != nil {
		return m.Defaults(clientID), errors.Wrapf(err, "reading settings of %s", clientID)
	}
	if !found {
		return m.Defaults(clientID), nil
	}
	return s, nil
}

// NumAdjacentCars resolves the window size for a client. Storage errors are
// logged and the default is used.
func (m *Manager) NumAdjacentCars(clientID string) int {
	if clientID == "" {
		return m.numAdjacentCars
	}
	s, err := m.Get(clientID)
	if err != nil {
		m.log.Error("reading display settings", "client", clientID, "err", err)
	}
	return s.NumAdjacentCars
}

func (m *Manager) Save(s model.DisplaySettings) error {
	if s.ClientID == "" {
		return errors.Wrap(ErrInvalidSettings, "empty client id")
	}
	if s.NumAdjacentCars < 0 {
		return errors.Wrapf(ErrInvalidSettings, "negative number of adjacent cars %d", s.NumAdjacentCars)
	}
	if s.NumAdjacentCars > racestate.MaxCars {
		return errors.Wrapf(ErrInvalidSettings, "more than %d adjacent cars: %d", racestate.MaxCars, s.NumAdjacentCars)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	query, args := buildUpsertDisplaySettingsCommand(s)
	if _, err := m.db.Exec(query, args...); err != nil {
		return errors.Wrapf(err, "saving settings of %s", s.ClientID)
	}
	m.log.Debug("display settings saved", "client", s.ClientID, "numAdjacentCars", s.NumAdjacentCars)
	return nil
}
