package output

import (
	"errors"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
)

type multi []ble.Sink

// Multi fans a reading out to every sink. A failing sink does not stop the others;
// their errors are joined.
func Multi(sinks ...ble.Sink) ble.Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multi) Emit(r ble.Reading) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
