package httpapi

import (
	"net/http"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
)

// SessionStatus is the read-only view of a scan session served over HTTP.
type SessionStatus interface {
	State() ble.SessionState
	Stats() ble.Stats
}

func NewMux(session SessionStatus, registry *ble.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, session)
	registerStatus(mux, session, registry)
	return mux
}
