package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/scraper"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// Scraper runs the availability and price pipelines
type Scraper interface {
	Availability(ctx context.Context, q models.AvailabilityQuery) (*models.AvailabilityResult, error)
	VerifyPrice(ctx context.Context, q models.PriceQuery) (*models.PriceResult, error)
}

// SessionLister reports the rendering sessions currently open
type SessionLister interface {
	ListSessions() []models.Session
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scraper  Scraper
	sessions SessionLister
	location *time.Location
	log      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(s Scraper, sessions SessionLister, location *time.Location, log *zap.Logger) *Handler {
	return &Handler{
		scraper:  s,
		sessions: sessions,
		location: location,
		log:      log,
	}
}

type errorResponse struct {
	Error     string      `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
	Debug     interface{} `json:"debug,omitempty"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"timeUTC":   now.UTC().Format(time.RFC3339),
		"timeLocal": now.In(h.location).Format(time.RFC3339),
		"tz":        h.location.String(),
	})
}

// GetAvailability handles GET /v1/availability
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.AvailabilityQuery{
		Venues:     splitList(q.Get("slug")),
		Date:       q.Get("date"),
		Earliest:   q.Get("earliest"),
		Latest:     q.Get("latest"),
		Screenshot: isTrue(q.Get("screenshot")),
	}
	if raw := q.Get("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			h.writeError(w, r, http.StatusBadRequest, "duration must be a whole number of minutes", nil)
			return
		}
		req.Duration = d
	}

	result, err := h.scraper.Availability(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPrice handles GET /v1/price
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.PriceQuery{
		VenueID:    strings.TrimSpace(q.Get("slug")),
		Date:       q.Get("date"),
		ResourceID: q.Get("court"),
		Start:      q.Get("start"),
		End:        q.Get("end"),
	}

	result, err := h.scraper.VerifyPrice(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListSessions handles GET /v1/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.ListSessions())
}

// fail maps a pipeline error to a status code. Input errors are the caller's
// fault; anything else is ours and carries whatever was observed.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var debug interface{}
	var venueErr *scraper.VenueError
	if errors.As(err, &venueErr) {
		debug = venueErr.Debug
	}

	if errors.Is(err, scraper.ErrInvalidInput) {
		h.writeError(w, r, http.StatusBadRequest, err.Error(), debug)
		return
	}

	h.log.Error("❌ request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	h.writeError(w, r, http.StatusInternalServerError, err.Error(), debug)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, debug interface{}) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: RequestID(r.Context()),
		Debug:     debug,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func isTrue(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	}
	return false
}
