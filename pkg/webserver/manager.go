package webserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"f1racetelemetry/pkg/caster"
	"f1racetelemetry/pkg/model"
	"f1racetelemetry/pkg/pubsub"
	"f1racetelemetry/pkg/racestate"
	"f1racetelemetry/pkg/tyrewear"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type TyreWearSource interface {
	TyreWearInfo() model.TyreWearInfo
	TyreWearPrediction(lap int) (tyrewear.Sample, error)
}

type SettingsStore interface {
	Get(clientID string) (model.DisplaySettings, error)
	Save(s model.DisplaySettings) error
	NumAdjacentCars(clientID string) int
}

type Options struct {
	Address           string
	RefreshInterval   time.Duration
	MaxWeatherSamples int
}

type Manager struct {
	r        *mux.Router
	opts     Options
	log      *slog.Logger
	state    *racestate.RaceState
	tyreWear TyreWearSource
	settings SettingsStore

	pubsubMgr     *pubsub.PubSub[string]
	messageCaster caster.ChannelCaster[model.Message]

	mu sync.Mutex
	// window sizes requested by websocket clients, one pubsub topic each
	windows map[int]struct{}
}

func NewManager(opts Options, state *racestate.RaceState, tyreWear TyreWearSource, settings SettingsStore, log *slog.Logger) *Manager {
	m := &Manager{
		r:             mux.NewRouter(),
		opts:          opts,
		log:           log,
		state:         state,
		tyreWear:      tyreWear,
		settings:      settings,
		pubsubMgr:     pubsub.NewPubSub[string](),
		messageCaster: caster.JSONChannelCaster[model.Message]{},
		windows:       make(map[int]struct{}),
	}

	m.rootHandlers()
	return m
}

func (m *Manager) Router() *mux.Router {
	return m.r
}

func (m *Manager) rootHandlers() {
	m.r.HandleFunc("/telemetry-info", m.handleTelemetryInfo).Methods(http.MethodGet)
	m.r.HandleFunc("/race-table", m.handleRaceTable).Methods(http.MethodGet)
	m.r.HandleFunc("/driver-info", m.handleDriverInfo).Methods(http.MethodGet)
	m.r.HandleFunc("/tyre-wear", m.handleTyreWear).Methods(http.MethodGet)
	m.r.HandleFunc("/tyre-wear/{lap:[0-9]+}", m.handleTyreWearLap).Methods(http.MethodGet)
	m.r.HandleFunc("/settings/{client}", m.handleGetSettings).Methods(http.MethodGet)
	m.r.HandleFunc("/settings/{client}", m.handlePutSettings).Methods(http.MethodPut)
	m.r.HandleFunc("/ws", m.handleWebsocket).Methods(http.MethodGet)
}

// Debug logs every registered route.
func (m *Manager) Debug() {
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		m.log.Debug("route", "path", pathTemplate, "methods", strings.Join(methods, ","))
		return nil
	})
}

func (m *Manager) raceInfo(numAdjacentCars int) model.RaceInfo {
	globals := m.state.Globals(m.opts.MaxWeatherSamples)
	standings, fastestLap := m.state.WindowedStandings(numAdjacentCars)
	return model.RaceInfo{
		GlobalsSnapshot: globals,
		FastestLapTime:  fastestLap,
		NumAdjacentCars: numAdjacentCars,
		TableEntries:    standings,
	}
}

func (m *Manager) windowFor(r *http.Request) int {
	return m.settings.NumAdjacentCars(r.URL.Query().Get("client"))
}

// Serve runs the webserver and the race table broadcast until ctx ends, then
// shuts down gracefully.
func (m *Manager) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         m.opts.Address,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	errChan := make(chan error, 1)
	go func() {
		m.log.Info("webserver listening", "addr", m.opts.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	broadcastCtx, stopBroadcast := context.WithCancel(ctx)
	defer stopBroadcast()
	go m.broadcast(broadcastCtx)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "webserver")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.log.Info("webserver shutting down")
	err := srv.Shutdown(shutdownCtx)
	// hijacked websocket connections are not tracked by Shutdown
	m.closeRaceTableClients()
	return err
}

func topicFor(numAdjacentCars int) string {
	return model.MtRaceTableUpdate + "/" + strconv.Itoa(numAdjacentCars)
}

func (m *Manager) broadcast(ctx context.Context) {
	ticker := time.NewTicker(m.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.publishRaceTable()
		}
	}
}

func (m *Manager) publishRaceTable() {
	m.mu.Lock()
	windows := make([]int, 0, len(m.windows))
	for n := range m.windows {
		windows = append(windows, n)
	}
	m.mu.Unlock()

	for _, n := range windows {
		topic := topicFor(n)
		if m.pruneWindow(n) {
			continue
		}
		msg, err := model.NewMessage(model.MtRaceTableUpdate, m.raceInfo(n))
		if err != nil {
			m.log.Error("building race table update", "err", err)
			continue
		}
		payload, err := m.messageCaster.To(msg)
		if err != nil {
			m.log.Error("casting race table update", "err", err)
			continue
		}
		m.pubsubMgr.Publish(topic, payload)
	}
}

func (m *Manager) subscribeRaceTable(numAdjacentCars int) (string, string, <-chan string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windows[numAdjacentCars] = struct{}{}
	topic := topicFor(numAdjacentCars)
	id, ch := m.pubsubMgr.Subscribe(topic)
	return topic, id, ch
}

// pruneWindow forgets a window size nobody is subscribed to any more and
// reports whether it did.
func (m *Manager) pruneWindow(numAdjacentCars int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pubsubMgr.Subscribers(topicFor(numAdjacentCars)) > 0 {
		return false
	}
	delete(m.windows, numAdjacentCars)
	return true
}

func (m *Manager) numWindows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// closeRaceTableClients ends every websocket push loop.
func (m *Manager) closeRaceTableClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for n := range m.windows {
		m.pubsubMgr.UnsubscribeAll(topicFor(n))
		delete(m.windows, n)
	}
}
