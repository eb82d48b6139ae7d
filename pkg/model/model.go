package model

import (
	"encoding/json"

	"f1racetelemetry/pkg/racestate"
	"f1racetelemetry/pkg/tyrewear"

	"github.com/pkg/errors"
)

const (
	MtGlobals             = "globals"
	MtNumCars             = "num-cars"
	MtDriverUpdate        = "driver-update"
	MtFinalClassification = "final-classification"
	MtTyreWear            = "tyre-wear"
	MtSessionRestart      = "session-restart"

	MtRaceTableUpdate = "race-table-update"
)

// Message is the envelope of every telemetry message read from the feed and
// of every update pushed to websocket clients.
type Message struct {
	MessageType string          `json:"type"`
	Body        json.RawMessage `json:"body,omitempty"`
}

func NewMessage(messageType string, body any) (Message, error) {
	if body == nil {
		return Message{MessageType: messageType}, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Message{}, errors.Wrapf(err, "encoding %s body", messageType)
	}
	return Message{MessageType: messageType, Body: data}, nil
}

// DecodeBody unmarshals the body into v.
func (m Message) DecodeBody(v any) error {
	if len(m.Body) == 0 {
		return errors.Errorf("%s message without body", m.MessageType)
	}
	if err := json.Unmarshal(m.Body, v); err != nil {
		return errors.Wrapf(err, "decoding %s body", m.MessageType)
	}
	return nil
}

type GlobalsMessage = racestate.GlobalData

type NumCarsMessage struct {
	NumCars int `json:"numCars"`
}

type DriverUpdateMessage struct {
	Index     int                    `json:"index"`
	IsFastest bool                   `json:"isFastest"`
	Data      racestate.DriverRecord `json:"data"`
}

type FinalClassificationMessage struct {
	Classification []racestate.ClassificationEntry `json:"classification"`
}

type TyreWearMessage struct {
	Samples []tyrewear.Sample `json:"samples"`
}

// RaceInfo is served on /telemetry-info and pushed as race-table-update.
type RaceInfo struct {
	racestate.GlobalsSnapshot
	FastestLapTime  string                     `json:"fastestLapTime"`
	NumAdjacentCars int                        `json:"numAdjacentCars"`
	TableEntries    []racestate.DriverSnapshot `json:"tableEntries"`
}

type TyreWearInfo struct {
	Sufficient  bool              `json:"sufficient"`
	Predictions []tyrewear.Sample `json:"predictions"`
}

type DisplaySettings struct {
	ClientID        string `json:"clientId"`
	NumAdjacentCars int    `json:"numAdjacentCars"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
