package ble

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referencePayload = []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00, 0xFA, 0x32, 0x64, 0x0C, 0x1C, 0x07}

func TestParseSensorPayload_Reference(t *testing.T) {
	got, err := ParseSensorPayload(referencePayload)
	require.NoError(t, err)

	assert.Equal(t, &SensorReading{
		Address:     "AA:BB:CC:DD:EE:FF",
		Temperature: 25.0,
		Humidity:    50,
		Battery:     100,
		BatteryMV:   3100,
		Counter:     7,
	}, got)
}

func TestParseSensorPayload_TooShort(t *testing.T) {
	for n := 0; n < sensorPayloadLen; n++ {
		// Exact-length slice so any out-of-range access panics.
		data := make([]byte, n)
		copy(data, referencePayload)

		got, err := ParseSensorPayload(data)
		require.ErrorIs(t, err, ErrTooShort, "len=%d", n)
		assert.Nil(t, got, "len=%d", n)
	}

	_, err := ParseSensorPayload(nil)
	require.ErrorIs(t, err, ErrTooShort)
}

func TestParseSensorPayload_Temperature(t *testing.T) {
	tests := []struct {
		name string
		raw  [2]byte
		want float64
	}{
		{name: "negative", raw: [2]byte{0xFF, 0x9C}, want: -10.0},
		{name: "zero", raw: [2]byte{0x00, 0x00}, want: 0},
		{name: "fraction", raw: [2]byte{0x00, 0xE7}, want: 23.1},
		{name: "small negative", raw: [2]byte{0xFF, 0xFF}, want: -0.1},
		{name: "min", raw: [2]byte{0x80, 0x00}, want: -3276.8},
		{name: "max", raw: [2]byte{0x7F, 0xFF}, want: 3276.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(nil), referencePayload...)
			data[6], data[7] = tt.raw[0], tt.raw[1]

			got, err := ParseSensorPayload(data)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Temperature, 1e-9)
		})
	}
}

func TestParseSensorPayload_Idempotent(t *testing.T) {
	first, err := ParseSensorPayload(referencePayload)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := ParseSensorPayload(referencePayload)
		require.NoError(t, err)
		assert.Equal(t, *first, *got)
	}
}

func TestParseSensorPayload_IgnoresTrailingBytes(t *testing.T) {
	data := append(append([]byte(nil), referencePayload...), 0xDE, 0xAD, 0xBE, 0xEF)

	got, err := ParseSensorPayload(data)
	require.NoError(t, err)

	want, err := ParseSensorPayload(referencePayload)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseSensorPayload_NoClamping(t *testing.T) {
	data := append([]byte(nil), referencePayload...)
	data[8] = 0xFF  // humidity 255%
	data[9] = 0x00  // battery 0%
	data[12] = 0xFF // counter wraps at 255

	got, err := ParseSensorPayload(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), got.Humidity)
	assert.Equal(t, uint8(0), got.Battery)
	assert.Equal(t, uint8(255), got.Counter)
}

func TestDecoder_LittleEndian(t *testing.T) {
	data := []byte{0xA4, 0xC1, 0x38, 0xe2, 0x3c, 0x8b, 0xFA, 0x00, 0x32, 0x64, 0x1C, 0x0C, 0x07}

	got, err := Decoder{Order: binary.LittleEndian}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "A4:C1:38:E2:3C:8B", got.Address)
	assert.InDelta(t, 25.0, got.Temperature, 1e-9)
	assert.Equal(t, uint16(3100), got.BatteryMV)
}

func TestDecoder_NilOrderIsBigEndian(t *testing.T) {
	got, err := Decoder{}.Decode(referencePayload)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, got.Temperature, 1e-9)
	assert.Equal(t, uint16(3100), got.BatteryMV)
}
