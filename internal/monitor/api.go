package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sabale88/IchilovTest/internal/shared/errors"
)

// Handler provides HTTP handlers for the monitoring module
type Handler struct {
	svc *Service
}

// NewHandler creates a new monitoring handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the monitoring routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/patients", func(r chi.Router) {
		r.Get("/monitoring", h.GetMonitoringList)
		r.Get("/{patientID}", h.GetPatientDetail)
	})

	r.Post("/snapshots/refresh", h.RefreshSnapshots)

	return r
}

// GetMonitoringList returns one page of the ranked attention list
func (h *Handler) GetMonitoringList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hoursThreshold := queryInt(q.Get("hours_threshold"), 0)
	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 50)
	department := q.Get("department")

	resp, err := h.svc.MonitoringList(r.Context(), hoursThreshold, department, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPatientDetail returns the latest detail snapshot for a patient
func (h *Handler) GetPatientDetail(w http.ResponseWriter, r *http.Request) {
	patientID, err := strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	detail, err := h.svc.PatientDetail(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	if detail == nil {
		writeError(w, errors.NotFound("patient", chi.URLParam(r, "patientID")))
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// RefreshSnapshots triggers a full snapshot regeneration
func (h *Handler) RefreshSnapshots(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HoursThreshold int `json:"hours_threshold"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("invalid request body"))
			return
		}
	}

	summary, err := h.svc.Refresh(r.Context(), req.HoursThreshold)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// --- Helpers ---

func queryInt(raw string, defaultValue int) int {
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
