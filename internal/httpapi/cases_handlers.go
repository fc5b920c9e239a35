package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"courtparser-engine/internal/store"
)

type CasesHandler struct {
	DB *sql.DB
}

func (h CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryInt(q, "limit", 0)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
		return
	}

	cases, err := store.ListCases(r.Context(), h.DB, store.ListCasesOpts{
		Region:       strings.TrimSpace(q.Get("region")),
		District:     strings.TrimSpace(q.Get("district")),
		WithDecision: queryBool(q, "decision"),
		Limit:        limit,
	})
	if err != nil {
		writeDBError(w, r, "list cases", err)
		return
	}
	if cases == nil {
		cases = []store.StoredCase{}
	}
	WriteJSON(w, http.StatusOK, cases)
}

// GetByPath expects /cases/{caseNumber}; numbers contain slashes, so the rest
// of the path is the key.
func (h CasesHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/cases/")
	num, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(num) == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing case number")
		return
	}

	c, err := store.GetCase(r.Context(), h.DB, num)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "case not found")
		return
	}
	if err != nil {
		writeDBError(w, r, "get case", err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}
