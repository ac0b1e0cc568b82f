package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bryanwahyu/medverify/internal/application/pipeline"
	"github.com/bryanwahyu/medverify/internal/domain/reports"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
	"github.com/bryanwahyu/medverify/internal/middleware"
)

type Router struct {
	pipe *pipeline.Service
}

func NewRouter(pipe *pipeline.Service, healthHandler http.HandlerFunc) http.Handler {
	r := &Router{pipe: pipe}
	mux := chi.NewRouter()

	if healthHandler == nil {
		healthHandler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}
	}

	mux.Get("/health", healthHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		// subrouter middleware sees {tenant}, mux-level middleware does not
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/exchanges", r.wrap(r.handleIngest))
		rt.Get("/reports/latest", r.wrap(r.handleLatest))
		rt.Get("/reports/{exchangeID}", r.wrap(r.handleGetReport))
		rt.Post("/reports/{exchangeID}/reverify", r.wrap(r.handleReverify))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, reports.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, middleware.ErrInvalid) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{tenant}/exchanges
// Accepts one prompt/response pair and queues its verification. The response
// comes back immediately; the run happens in the background.
func (r *Router) handleIngest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return err
	}

	var body struct {
		ExchangeID     string `json:"exchange_id"`
		Prompt         string `json:"prompt"`
		Response       string `json:"response"`
		Role           string `json:"role"`
		ConversationID string `json:"conversation_id"`
		Documents      string `json:"documents"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return middleware.Invalid("malformed request body")
	}
	if body.ExchangeID == "" {
		body.ExchangeID = uuid.NewString()
	}
	if err := middleware.ValidateExchangeID(body.ExchangeID); err != nil {
		return err
	}
	role, err := middleware.ValidateRole(body.Role)
	if err != nil {
		return err
	}

	ex := verification.Exchange{
		ID:             verification.ExchangeID(body.ExchangeID),
		TenantID:       tenant,
		Prompt:         middleware.SanitizeString(body.Prompt),
		Response:       middleware.SanitizeString(body.Response),
		Role:           verification.Role(role),
		ConversationID: middleware.SanitizeString(body.ConversationID),
		Documents:      body.Documents,
		CreatedAt:      time.Now(),
	}

	status, err := r.pipe.Ingest(req.Context(), ex)
	if errors.Is(err, pipeline.ErrNothingToVerify) {
		return writeJSON(w, http.StatusAccepted, map[string]any{
			"exchange_id": body.ExchangeID,
			"status":      "skipped",
			"message":     "empty response, nothing to verify",
		})
	}
	if errors.Is(err, pipeline.ErrSkippedRole) {
		return writeJSON(w, http.StatusAccepted, map[string]any{
			"exchange_id": body.ExchangeID,
			"status":      "skipped",
			"message":     "only assistant responses are verified",
		})
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, map[string]any{
		"exchange_id": body.ExchangeID,
		"status":      status,
	})
}

// GET /v1/{tenant}/reports/{exchangeID}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "exchangeID")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return err
	}
	if err := middleware.ValidateExchangeID(id); err != nil {
		return err
	}

	rec, err := r.pipe.GetReport(req.Context(), tenant, verification.ExchangeID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// POST /v1/{tenant}/reports/{exchangeID}/reverify
func (r *Router) handleReverify(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "exchangeID")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return err
	}
	if err := middleware.ValidateExchangeID(id); err != nil {
		return err
	}

	status, err := r.pipe.Reverify(req.Context(), tenant, verification.ExchangeID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, map[string]any{
		"exchange_id": id,
		"status":      status,
	})
}

// GET /v1/{tenant}/reports/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.pipe.Latest(req.Context(), tenant, middleware.ClampLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
