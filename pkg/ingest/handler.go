package ingest

import (
	"log/slog"
	"sync"

	"f1racetelemetry/pkg/model"
	"f1racetelemetry/pkg/queues"
	"f1racetelemetry/pkg/racestate"
	"f1racetelemetry/pkg/tyrewear"

	"github.com/pkg/errors"
)

var (
	ErrUnknownMessage       = errors.New("unknown message type")
	ErrInsufficientTyreData = errors.New("not enough racing laps for a tyre wear forecast")
)

// Handler applies decoded telemetry messages to the race state and to the tyre
// wear extrapolator of the player.
type Handler struct {
	log   *slog.Logger
	state *racestate.RaceState

	mu       sync.Mutex
	tyreWear *tyrewear.Extrapolator
	// samples seen before the race length is known
	pending *queues.Queue[tyrewear.Sample]
}

func NewHandler(state *racestate.RaceState, log *slog.Logger) *Handler {
	return &Handler{
		log:     log,
		state:   state,
		pending: queues.NewQueue[tyrewear.Sample](),
	}
}

func (h *Handler) Handle(m model.Message) error {
	switch m.MessageType {
	case model.MtGlobals:
		var body model.GlobalsMessage
		if err := m.DecodeBody(&body); err != nil {
			return err
		}
		h.state.SetGlobals(body)
		h.onTotalLaps(body.TotalLaps)

	case model.MtNumCars:
		var body model.NumCarsMessage
		if err := m.DecodeBody(&body); err != nil {
			return err
		}
		if body.NumCars < 0 {
			return errors.Wrapf(racestate.ErrInvalidUpdate, "negative number of cars %d", body.NumCars)
		}
		h.state.SetNumCars(body.NumCars)

	case model.MtDriverUpdate:
		var body model.DriverUpdateMessage
		if err := m.DecodeBody(&body); err != nil {
			return err
		}
		backfilled, err := h.state.MergeDriver(body.Index, body.Data, body.IsFastest)
		if err != nil {
			return err
		}
		if backfilled {
			fastest, _ := h.state.FastestIndex()
			h.log.Info("fastest lap resolved from best laps", "index", fastest)
		}

	case model.MtFinalClassification:
		var body model.FinalClassificationMessage
		if err := m.DecodeBody(&body); err != nil {
			return err
		}
		if err := h.state.ApplyFinalClassification(body.Classification); err != nil {
			return err
		}
		h.log.Info("final classification applied", "cars", len(body.Classification))

	case model.MtTyreWear:
		var body model.TyreWearMessage
		if err := m.DecodeBody(&body); err != nil {
			return err
		}
		h.appendTyreWear(body.Samples)

	case model.MtSessionRestart:
		h.state.Clear()
		h.clearTyreWear()
		h.log.Info("session restarted")

	default:
		return errors.Wrapf(ErrUnknownMessage, "%q", m.MessageType)
	}
	return nil
}

func (h *Handler) onTotalLaps(totalLaps int) {
	if totalLaps <= 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tyreWear != nil && h.tyreWear.TotalLaps() == totalLaps {
		return
	}
	samples := []tyrewear.Sample{}
	if h.tyreWear != nil {
		h.log.Warn("race length changed, tyre wear forecast rebuilt",
			"from", h.tyreWear.TotalLaps(), "to", totalLaps)
		samples = h.tyreWear.Samples()
	}
	samples = append(samples, h.pending.Drain()...)
	h.tyreWear = tyrewear.NewExtrapolator(samples, totalLaps)
}

func (h *Handler) appendTyreWear(samples []tyrewear.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tyreWear == nil {
		h.pending.Push(samples...)
		h.log.Debug("tyre wear queued until race length is known", "pending", h.pending.Len())
		return
	}
	h.tyreWear.Append(samples...)
	h.log.Debug("tyre wear updated",
		"samples", h.tyreWear.NumSamples(), "predictions", len(h.tyreWear.Predictions()))
}

func (h *Handler) clearTyreWear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending.Drain()
	if h.tyreWear != nil {
		h.tyreWear.Clear()
	}
}

// TyreWearInfo returns the forecast of the player's tyre wear. Predictions are
// only included once there is enough data.
func (h *Handler) TyreWearInfo() model.TyreWearInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	info := model.TyreWearInfo{Predictions: []tyrewear.Sample{}}
	if h.tyreWear == nil || !h.tyreWear.IsDataSufficient() {
		return info
	}
	info.Sufficient = true
	info.Predictions = h.tyreWear.Predictions()
	return info
}

func (h *Handler) TyreWearPrediction(lap int) (tyrewear.Sample, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tyreWear == nil || !h.tyreWear.IsDataSufficient() {
		return tyrewear.Sample{}, ErrInsufficientTyreData
	}
	return h.tyreWear.Prediction(lap)
}
