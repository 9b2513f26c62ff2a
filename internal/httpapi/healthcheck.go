package httpapi

import (
	"net/http"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
	"github.com/akbarsahata/LYWSD03MMC/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	session SessionStatus
}

func NewHealthchecker(session SessionStatus) healthchecker {
	return &healthcheckerImpl{session: session}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	state := h.session.State()
	if state != ble.StateScanning {
		utils.WriteError(w, http.StatusServiceUnavailable, "scan session is "+state.String())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, session SessionStatus) {
	healthchecker := NewHealthchecker(session)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
