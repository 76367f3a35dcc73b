package models

import (
	"encoding/json"
	"errors"
)

// Reading is a single inbound sensor observation. It is transient: it exists
// only for the duration of one evaluation and is never persisted.
type Reading struct {
	DeviceID string
	Value    float64
}

// readingEnvelope is the wire shape readings arrive in, both on the Kafka
// readings topic and on the HTTP ingest endpoint:
//
//	{"PrinterId": "sf36", "data": {"value": 42.5}}
type readingEnvelope struct {
	DeviceID string `json:"PrinterId"`
	Data     struct {
		Value *float64 `json:"value"`
	} `json:"data"`
}

// Decode errors
var (
	ErrMalformedReading = errors.New("malformed reading payload")
	ErrMissingValue     = errors.New("reading has no numeric value")
)

// DecodeReading parses a raw JSON reading payload. The device identifier is
// NOT normalized here; the evaluator owns normalization.
func DecodeReading(payload []byte) (Reading, error) {
	var env readingEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Reading{}, ErrMalformedReading
	}

	if env.Data.Value == nil {
		return Reading{}, ErrMissingValue
	}

	return Reading{
		DeviceID: env.DeviceID,
		Value:    *env.Data.Value,
	}, nil
}

// AnomalyNotification is the outbound payload published on the anomaly topic
// when a device's streak reaches its window.
type AnomalyNotification struct {
	DeviceID string `json:"PrinterId"`
	Events   int    `json:"events"`
}
