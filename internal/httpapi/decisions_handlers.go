package httpapi

import (
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"courtparser-engine/internal/archive"
	"courtparser-engine/internal/store"
)

type DecisionsHandler struct {
	DB      *sql.DB
	Storage archive.Storage
}

// GetByPath streams an archived decision file: /decisions/{id}.
func (h DecisionsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/decisions/"))
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing id")
		return
	}
	if h.Storage == nil {
		WriteError(w, r, http.StatusNotFound, "archive_disabled", "decision archive is disabled")
		return
	}

	f, err := store.GetDecisionFile(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	rc, err := h.Storage.Download(r.Context(), f.ObjectKey)
	if errors.Is(err, archive.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("[archive] download id=%s err=%v", id, err)
		WriteError(w, r, http.StatusBadGateway, "storage_error", "archive read failed")
		return
	}
	defer rc.Close()

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=604800")
	_, _ = io.Copy(w, rc)
}
