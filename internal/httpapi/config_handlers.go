package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"courtparser-engine/internal/config"
	"courtparser-engine/internal/regions"
)

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	Regions     *regions.Table
	// Applied runs after a saved config is live, e.g. to retune crawl backoff.
	Applied func(config.Config)
}

type configSaved struct {
	Config   config.Config `json:"config"`
	Warnings []string      `json:"warnings"`
}

// unitReport shows how a schedule unit's regions resolve to court districts.
type unitReport struct {
	Name    string         `json:"name"`
	Every   string         `json:"every"`
	Regions []regionReport `json:"regions"`
}

type regionReport struct {
	Name      string `json:"name"`
	Canonical string `json:"canonical"`
	District  string `json:"district"`
	Known     bool   `json:"known"`
}

type configReport struct {
	config.Validation
	Units []unitReport `json:"units"`
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.CfgVal.Load().(config.Config))
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var incoming config.Config
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON: trailing data")
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteValidation(w, r, vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		log.Printf("[config] save %s: %v", h.UserCfgPath, err)
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)
	if h.Applied != nil {
		h.Applied(saved)
	}
	log.Printf("[config] saved %s (%d schedule units, %d warnings)", h.UserCfgPath, len(saved.Schedule.Units), len(vr.Warnings))
	WriteJSON(w, http.StatusOK, configSaved{Config: saved, Warnings: vr.Warnings})
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs})
}

// Validate checks the live config and shows which district each scheduled
// region will be searched under.
func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	normalized, vr := config.NormalizeAndValidate(cur)

	rep := configReport{Validation: vr, Units: []unitReport{}}
	if h.Regions != nil {
		for _, u := range normalized.Schedule.Units {
			ur := unitReport{Name: u.Name, Every: u.Every, Regions: []regionReport{}}
			for _, name := range u.Regions {
				canon := h.Regions.Canonical(name)
				ur.Regions = append(ur.Regions, regionReport{
					Name:      name,
					Canonical: canon,
					District:  h.Regions.Resolve(name),
					Known:     h.Regions.Known(name),
				})
			}
			rep.Units = append(rep.Units, ur)
		}
	}
	WriteJSON(w, http.StatusOK, rep)
}
