package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
	"github.com/akbarsahata/LYWSD03MMC/pkg/types"
)

func testReading(rssi *int16) ble.Reading {
	return ble.Reading{
		SensorReading: ble.SensorReading{
			Address:     "A4:C1:38:E2:3C:8B",
			Temperature: 25.0,
			Humidity:    50,
			Battery:     100,
			BatteryMV:   3100,
			Counter:     7,
		},
		Label:  "Computer Room",
		RSSI:   rssi,
		SeenAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFormatLine(t *testing.T) {
	rssi := int16(-70)

	assert.Equal(t,
		"[2026-01-02 03:04:05] Computer Room (A4:C1:38:E2:3C:8B, RSSI=-70) -> 25.0 °C, 50 % RH, battery 100% (3100 mV, ctr=7)",
		FormatLine(testReading(&rssi)),
	)
	assert.Equal(t,
		"[2026-01-02 03:04:05] Computer Room (A4:C1:38:E2:3C:8B, RSSI=n/a) -> 25.0 °C, 50 % RH, battery 100% (3100 mV, ctr=7)",
		FormatLine(testReading(nil)),
	)

	r := testReading(nil)
	r.Temperature = -10.0
	assert.Contains(t, FormatLine(r), "-> -10.0 °C")
}

func TestConsole_Text(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, FormatText)

	require.NoError(t, c.Emit(testReading(nil)))
	require.NoError(t, c.Emit(testReading(nil)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[2026-01-02 03:04:05] Computer Room"))
}

func TestConsole_JSON(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, FormatJSON)
	rssi := int16(-64)

	require.NoError(t, c.Emit(testReading(&rssi)))
	require.NoError(t, c.Emit(testReading(nil)))

	dec := json.NewDecoder(&buf)

	var first types.Reading
	require.NoError(t, dec.Decode(&first))
	assert.Equal(t, "Computer Room", first.Label)
	assert.Equal(t, "A4:C1:38:E2:3C:8B", first.Address)
	require.NotNil(t, first.RSSI)
	assert.Equal(t, int16(-64), *first.RSSI)
	assert.Equal(t, 25.0, first.Temperature)
	assert.Equal(t, uint8(7), first.Counter)

	var second map[string]any
	require.NoError(t, dec.Decode(&second))
	assert.Contains(t, second, "rssi_dbm")
	assert.Nil(t, second["rssi_dbm"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestConsole_WriteError(t *testing.T) {
	require.Error(t, NewConsole(failingWriter{}, FormatText).Emit(testReading(nil)))
	require.Error(t, NewConsole(failingWriter{}, FormatJSON).Emit(testReading(nil)))
}

func TestMulti(t *testing.T) {
	errA := errors.New("broker down")
	var got []string

	sink := Multi(
		ble.SinkFunc(func(r ble.Reading) error { got = append(got, "a"); return errA }),
		nil,
		ble.SinkFunc(func(r ble.Reading) error { got = append(got, "b"); return nil }),
	)

	err := sink.Emit(testReading(nil))
	require.ErrorIs(t, err, errA)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMulti_Single(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, FormatText)

	assert.Same(t, c, Multi(c, nil))
	require.NoError(t, Multi().Emit(testReading(nil)))
}
