package ble

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/akbarsahata/LYWSD03MMC/internal/utils"
)

// Sensor payload format (ATC firmware, service data 0x181A, 13 bytes):
// [0:6] MAC, [6:8] temperature int16 / 10, [8] humidity %, [9] battery %,
// [10:12] battery mV uint16, [12] packet counter. Multi-byte fields use the
// decoder's byte order; this firmware build sends them big-endian.
const sensorPayloadLen = 13

// ErrTooShort is returned for payloads shorter than the fixed sensor layout.
var ErrTooShort = errors.New("payload too short")

// SensorReading is a decoded sensor payload.
type SensorReading struct {
	Address     string
	Temperature float64
	Humidity    uint8
	Battery     uint8
	BatteryMV   uint16
	Counter     uint8
}

// Decoder decodes sensor payloads using a firmware-specific byte order.
type Decoder struct {
	Order binary.ByteOrder
}

// DefaultDecoder matches the big-endian firmware build.
var DefaultDecoder = Decoder{Order: binary.BigEndian}

// ParseSensorPayload decodes data with DefaultDecoder.
func ParseSensorPayload(data []byte) (*SensorReading, error) {
	return DefaultDecoder.Decode(data)
}

// Decode returns (nil, error) if data does not hold a complete payload.
// Bytes past the fixed layout are ignored.
func (d Decoder) Decode(data []byte) (*SensorReading, error) {
	if len(data) < sensorPayloadLen {
		return nil, fmt.Errorf("%w: %d", ErrTooShort, len(data))
	}
	order := d.Order
	if order == nil {
		order = binary.BigEndian
	}

	return &SensorReading{
		Address:     utils.FormatMAC(data[0:6]),
		Temperature: float64(int16(order.Uint16(data[6:8]))) / 10.0,
		Humidity:    data[8],
		Battery:     data[9],
		BatteryMV:   order.Uint16(data[10:12]),
		Counter:     data[12],
	}, nil
}
