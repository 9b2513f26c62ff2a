package httpapi

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
	"github.com/akbarsahata/LYWSD03MMC/internal/utils"
)

type StatusResponse struct {
	State        string    `json:"state"`
	Stats        ble.Stats `json:"stats"`
	DroppedTotal uint64    `json:"dropped_total"`
	Registry     struct {
		Size       int      `json:"size"`
		Identities []string `json:"identities"`
	} `json:"registry"`
}

type statusHandler struct {
	session  SessionStatus
	registry *ble.Registry
}

func (h *statusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.session.Stats()

	var resp StatusResponse
	resp.State = h.session.State().String()
	resp.Stats = st
	resp.DroppedTotal = lo.Sum(lo.Values(st.Dropped))
	resp.Registry.Size = h.registry.Len()
	resp.Registry.Identities = h.registry.Identities()
	if resp.Registry.Identities == nil {
		resp.Registry.Identities = []string{}
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

func registerStatus(mux *http.ServeMux, session SessionStatus, registry *ble.Registry) {
	h := &statusHandler{session: session, registry: registry}
	mux.HandleFunc("GET /status", h.handleStatus)
}
