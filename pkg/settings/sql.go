package settings

import (
	"database/sql"

	"f1racetelemetry/pkg/model"
)

func buildCreateDisplaySettingsTable() string {
	return `CREATE TABLE IF NOT EXISTS display_settings (
		clientid TEXT PRIMARY KEY,
		num_adjacent_cars INTEGER NOT NULL);`
}

func buildSelectDisplaySettingsCommand(clientID string) (string, []any, func(*sql.Rows) (model.DisplaySettings, bool, error)) {
	query := `SELECT clientid, num_adjacent_cars FROM display_settings WHERE clientid = ?`
	return query, []any{clientID}, processSelectDisplaySettingsRows
}

func processSelectDisplaySettingsRows(rows *sql.Rows) (model.DisplaySettings, bool, error) {
	defer rows.Close()

	s := model.DisplaySettings{}
	// only can be one row
	if rows.Next() {
		if err := rows.Scan(&s.ClientID, &s.NumAdjacentCars); err != nil {
			return s, false, err
		}
		return s, true, nil
	}
	return s, false, rows.Err()
}

func buildUpsertDisplaySettingsCommand(s model.DisplaySettings) (string, []any) {
	query := `INSERT OR REPLACE INTO display_settings (clientid, num_adjacent_cars) VALUES (?, ?)`
	return query, []any{s.ClientID, s.NumAdjacentCars}
}
