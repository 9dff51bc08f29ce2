package api

import (
	"encoding/json"
	"net/http"

	"sweffect/domain/core"
	"sweffect/domain/effect"
	"sweffect/domain/study"
	"sweffect/internal/errors"
	"sweffect/internal/report"

	"github.com/go-chi/chi/v5"
)

// estimateRequest carries one estimation call. Either inline records with
// design params, or a server-side data file path.
type estimateRequest struct {
	Records         []study.Record     `json:"records,omitempty"`
	Params          study.DesignParams `json:"params,omitempty"`
	File            string             `json:"file,omitempty"`
	ExtraTimePoints int                `json:"extra_time_points,omitempty"`

	Family        string `json:"family"`
	Enforce       string `json:"enforce,omitempty"`
	EffectReached int    `json:"effect_reached,omitempty"`
}

func (s *Server) handleCreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidDataset("request body is not valid JSON"))
		return
	}

	family, err := effect.ParseFamily(req.Family)
	if err != nil {
		writeError(w, err)
		return
	}
	spec := effect.MethodSpec{Family: family, EffectReached: req.EffectReached}
	if req.Enforce != "" {
		enforce, err := effect.ParseEnforcement(req.Enforce)
		if err != nil {
			writeError(w, err)
			return
		}
		spec.Enforce = enforce
	}

	var est *effect.Estimate
	if req.File != "" {
		est, err = s.service.EstimateFromFile(r.Context(), req.File, req.ExtraTimePoints, spec)
	} else {
		ds := &study.Dataset{Records: req.Records, Params: req.Params}
		est, err = s.service.EstimateDataset(r.Context(), ds, spec)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, est)
}

func (s *Server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	est, err := s.service.GetEstimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleListEstimates(w http.ResponseWriter, r *http.Request) {
	ests, err := s.service.ListEstimates(r.Context(), 100)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ests)
}

func (s *Server) handleEstimateReport(w http.ResponseWriter, r *http.Request) {
	est, err := s.service.GetEstimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	html := report.RenderHTML(report.BuildMarkdown(est))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch code {
	case errors.CodeInvalidDataset, errors.CodeUnsupportedDesign, errors.CodeUnsupportedEnforcement:
		status = http.StatusUnprocessableEntity
	case errors.CodeFittingFailed, errors.CodeNonPositiveVariance:
		status = http.StatusBadGateway
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	if core.IsNotFound(err) {
		status = http.StatusNotFound
		code = errors.CodeNotFound
	}
	writeJSON(w, status, map[string]string{"code": code, "error": err.Error()})
}
