package httpapi

import (
	"net/http"
	"strings"

	"courtparser-engine/internal/regions"
)

type RegionsHandler struct {
	Table *regions.Table
}

func (h RegionsHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"default_district": h.Table.DefaultDistrict(),
		"districts":        h.Table.Districts(),
	})
}

func (h RegionsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing name")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"name":        name,
		"canonical":   h.Table.Canonical(name),
		"district":    h.Table.Resolve(name),
		"is_district": h.Table.IsDistrict(name),
	})
}
