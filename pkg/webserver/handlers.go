package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"f1racetelemetry/pkg/ingest"
	"f1racetelemetry/pkg/model"
	"f1racetelemetry/pkg/racestate"
	"f1racetelemetry/pkg/render"
	"f1racetelemetry/pkg/tyrewear"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (m *Manager) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.log.Error("writing response", "err", err)
	}
}

func (m *Manager) writeError(w http.ResponseWriter, status int, title, message string) {
	m.writeJSON(w, status, model.ErrorResponse{Error: title, Message: message})
}

func (m *Manager) handleTelemetryInfo(w http.ResponseWriter, r *http.Request) {
	m.writeJSON(w, http.StatusOK, m.raceInfo(m.windowFor(r)))
}

func (m *Manager) handleRaceTable(w http.ResponseWriter, r *http.Request) {
	standings, fastestLap := m.state.WindowedStandings(m.windowFor(r))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, render.RaceTable(standings, fastestLap))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m *Manager) handleDriverInfo(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("index")
	if param == "" {
		m.writeError(w, http.StatusBadRequest, "Invalid parameters", `Provide "index" parameter`)
		return
	}
	index, err := strconv.Atoi(param)
	if !isDigits(param) || err != nil {
		m.writeError(w, http.StatusBadRequest, "Invalid parameter value", `"index" parameter must be numeric`)
		return
	}
	driver, ok := m.state.Driver(index)
	if !ok {
		m.writeError(w, http.StatusBadRequest, "Invalid parameter value", "Invalid index")
		return
	}
	m.writeJSON(w, http.StatusOK, driver)
}

func (m *Manager) handleTyreWear(w http.ResponseWriter, r *http.Request) {
	m.writeJSON(w, http.StatusOK, m.tyreWear.TyreWearInfo())
}

func (m *Manager) handleTyreWearLap(w http.ResponseWriter, r *http.Request) {
	lap, err := strconv.Atoi(mux.Vars(r)["lap"])
	if err != nil {
		m.writeError(w, http.StatusBadRequest, "Invalid parameter value", `"lap" parameter must be numeric`)
		return
	}

	prediction, err := m.tyreWear.TyreWearPrediction(lap)
	switch {
	case err == nil:
		m.writeJSON(w, http.StatusOK, prediction)
	case errors.Is(err, ingest.ErrInsufficientTyreData):
		m.writeError(w, http.StatusConflict, "Insufficient data", err.Error())
	case errors.Is(err, tyrewear.ErrLapNotFound), errors.Is(err, tyrewear.ErrNoPrediction):
		m.writeError(w, http.StatusNotFound, "Not found", err.Error())
	default:
		m.log.Error("tyre wear prediction", "lap", lap, "err", err)
		m.writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

func (m *Manager) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	client := mux.Vars(r)["client"]
	s, err := m.settings.Get(client)
	if err != nil {
		m.log.Error("reading display settings", "client", client, "err", err)
		m.writeError(w, http.StatusInternalServerError, "Internal error", "could not read settings")
		return
	}
	m.writeJSON(w, http.StatusOK, s)
}

func (m *Manager) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var s model.DisplaySettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		m.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	s.ClientID = mux.Vars(r)["client"]
	if s.NumAdjacentCars < 0 || s.NumAdjacentCars > racestate.MaxCars {
		m.writeError(w, http.StatusBadRequest, "Invalid parameter value",
			fmt.Sprintf(`"numAdjacentCars" must be between 0 and %d`, racestate.MaxCars))
		return
	}
	if err := m.settings.Save(s); err != nil {
		m.log.Error("saving display settings", "client", s.ClientID, "err", err)
		m.writeError(w, http.StatusInternalServerError, "Internal error", "could not save settings")
		return
	}
	m.writeJSON(w, http.StatusOK, s)
}

// handleWebsocket pushes race-table-update messages to the client every
// refresh interval until it disconnects.
func (m *Manager) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	topic, id, updates := m.subscribeRaceTable(m.windowFor(r))
	defer m.pubsubMgr.Unsubscribe(topic, id)
	m.log.Debug("race table client registered", "id", id, "topic", topic)

	go func() {
		// only read to notice the client going away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.pubsubMgr.Unsubscribe(topic, id)
				return
			}
		}
	}()

	for payload := range updates {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			m.log.Debug("race table client gone", "id", id, "err", err)
			return
		}
	}
}
