package ble

import (
	"bytes"
	"log/slog"
	"math"
	"time"

	"github.com/akbarsahata/LYWSD03MMC/internal/utils"
	"github.com/akbarsahata/LYWSD03MMC/pkg/types"
)

// DropReason tells why an advertisement produced no reading.
type DropReason int

const (
	DropNone DropReason = iota
	DropNoServiceData
	DropDecodeFailure
	DropNotAllowlisted
)

func (r DropReason) String() string {
	switch r {
	case DropNone:
		return "none"
	case DropNoServiceData:
		return "no_service_data"
	case DropDecodeFailure:
		return "decode_failure"
	case DropNotAllowlisted:
		return "not_allowlisted"
	default:
		return "unknown"
	}
}

// Reading is a decoded payload enriched with observation metadata.
type Reading struct {
	SensorReading
	Label  string
	RSSI   *int16
	SeenAt time.Time
}

// Telemetry converts r to its wire representation.
func (r Reading) Telemetry() types.Reading {
	return types.Reading{
		Timestamp:   r.SeenAt,
		Label:       r.Label,
		Address:     r.Address,
		RSSI:        r.RSSI,
		Temperature: math.Round(r.Temperature*10) / 10,
		Humidity:    r.Humidity,
		Battery:     r.Battery,
		BatteryMV:   r.BatteryMV,
		Counter:     r.Counter,
	}
}

// Handler turns advertisements into readings for allowlisted sensors.
type Handler struct {
	decoder  Decoder
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a handler. A nil registry accepts every device.
func NewHandler(decoder Decoder, registry *Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		decoder:  decoder,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one advertisement through the pipeline. Exactly one of the results is meaningful:
// a reading with DropNone, or nil with the reason it was dropped.
func (h *Handler) Process(adv Advertisement) (*Reading, DropReason) {
	data, ok := adv.Service(EnvironmentalSensingUUID)
	if !ok {
		return nil, DropNoServiceData
	}
	payload := bytes.Clone(data)

	sr, err := h.decoder.Decode(payload)
	if err != nil {
		h.logger.Debug("ble: ignore non-sensor payload", "addr", adv.Address, "error", err)
		return nil, DropDecodeFailure
	}

	if !h.registry.Known(sr.Address) {
		h.logger.Debug("ble: ignore unknown sensor", "addr", adv.Address, "mac", sr.Address)
		return nil, DropNotAllowlisted
	}

	label, ok := h.registry.Label(sr.Address)
	if !ok {
		label = adv.LocalName
	}
	if label == "" {
		label = sr.Address
	}

	var rssi *int16
	if adv.RSSI != nil {
		v := *adv.RSSI
		rssi = &v
	}

	h.logger.Debug("ble: sensor reading decoded",
		"addr", adv.Address,
		"mac", sr.Address,
		"label", label,
		"ctr", sr.Counter,
		"data", utils.BytesToHex(payload),
	)

	return &Reading{
		SensorReading: *sr,
		Label:         label,
		RSSI:          rssi,
		SeenAt:        h.now(),
	}, DropNone
}
