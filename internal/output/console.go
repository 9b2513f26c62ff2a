package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
)

const timeLayout = "2006-01-02 15:04:05"

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Console writes one line per reading to w.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	enc    *json.Encoder
}

var _ ble.Sink = (*Console)(nil)

func NewConsole(w io.Writer, format Format) *Console {
	c := &Console{w: w, format: format}
	if format == FormatJSON {
		c.enc = json.NewEncoder(w)
	}
	return c
}

func (c *Console) Emit(r ble.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enc != nil {
		if err := c.enc.Encode(r.Telemetry()); err != nil {
			return fmt.Errorf("console: encode reading: %w", err)
		}
		return nil
	}

	if _, err := io.WriteString(c.w, FormatLine(r)+"\n"); err != nil {
		return fmt.Errorf("console: write reading: %w", err)
	}
	return nil
}

// FormatLine renders r as
//
//	[2026-01-02 03:04:05] Computer Room (A4:C1:38:E2:3C:8B, RSSI=-70) -> 25.0 °C, 50 % RH, battery 100% (3100 mV, ctr=7)
func FormatLine(r ble.Reading) string {
	rssi := "n/a"
	if r.RSSI != nil {
		rssi = strconv.Itoa(int(*r.RSSI))
	}
	return fmt.Sprintf("[%s] %s (%s, RSSI=%s) -> %.1f °C, %d %% RH, battery %d%% (%d mV, ctr=%d)",
		r.SeenAt.Format(timeLayout),
		r.Label,
		r.Address,
		rssi,
		r.Temperature,
		r.Humidity,
		r.Battery,
		r.BatteryMV,
		r.Counter,
	)
}
