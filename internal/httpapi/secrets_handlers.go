package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"courtparser-engine/internal/config"
	"courtparser-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setS3SecretReq struct {
	Secret string `json:"secret"`
}

func (h SecretsHandler) SetS3Secret(w http.ResponseWriter, r *http.Request) {
	var req setS3SecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetS3Secret(secrets.S3KeyringAccount(cfg), req.Secret); err != nil {
		WriteError(w, r, http.StatusBadRequest, "secret_rejected", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
