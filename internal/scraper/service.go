// Package scraper runs the availability and price pipelines over one
// rendering session per request.
package scraper

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/config"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// SessionSource hands out isolated rendering sessions.
type SessionSource interface {
	Acquire(ctx context.Context) (browser.Session, error)
}

// venueVisit is what one venue visit produced.
type venueVisit struct {
	name  string
	slots []models.Slot
	debug *models.Diagnostics
}

// Service owns the request-level pipelines.
type Service struct {
	sessions SessionSource
	cfg      *config.Config
	log      *zap.Logger
	tracer   trace.Tracer

	visit func(ctx context.Context, page browser.Page, venue string, q *availabilityQuery) (venueVisit, error)
}

// NewService wires the pipelines to a session source.
func NewService(sessions SessionSource, cfg *config.Config, log *zap.Logger) *Service {
	s := &Service{
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer("github.com/shehryarbajwa/courtscout/internal/scraper"),
	}
	s.visit = s.visitVenue
	return s
}

// Availability scrapes every requested venue, in order, over one session.
// Input errors are returned before a session is acquired. A failing venue is
// recorded in its outcome and does not stop the others.
func (s *Service) Availability(ctx context.Context, req models.AvailabilityQuery) (*models.AvailabilityResult, error) {
	q, err := parseAvailability(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := s.log.With(zap.String("run_id", runID))

	ctx, span := s.tracer.Start(ctx, "availability", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.StringSlice("venues", q.venues),
		attribute.String("date", q.date.Format(dateLayout)),
	))
	defer span.End()

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session acquisition failed")
		log.Error("❌ failed to acquire session", zap.Error(err))
		return nil, err
	}
	defer sess.Release()

	result := &models.AvailabilityResult{
		RunID:  runID,
		Date:   q.date.Format(dateLayout),
		Venues: []models.VenueOutcome{},
		Slots:  []models.Slot{},
	}

	for _, venue := range q.venues {
		vlog := log.With(zap.String("venue", venue))
		visit, err := s.visit(ctx, sess, venue, q)

		outcome := models.VenueOutcome{
			VenueID:   venue,
			VenueName: visit.name,
			Debug:     visit.debug,
		}
		if err != nil {
			if errors.Is(err, ErrVenueNotFound) && len(q.venues) == 1 {
				return nil, &VenueError{VenueID: venue, Err: err, Debug: visit.debug}
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			outcome.Error = truncate(err.Error(), maxErrorDetail)
			vlog.Warn("⚠️ venue failed", zap.Error(err))
		} else {
			outcome.OK = true
			outcome.Slots = len(visit.slots)
			result.Slots = append(result.Slots, visit.slots...)
			vlog.Info("✓ venue scraped", zap.Int("slots", len(visit.slots)))
		}
		result.Venues = append(result.Venues, outcome)
	}

	result.Summary = Summarize(result.Venues)
	span.SetAttributes(
		attribute.String("verdict", string(result.Summary.Verdict)),
		attribute.Int("slots", result.Summary.TotalSlots),
	)
	log.Info("✅ availability run finished",
		zap.String("verdict", string(result.Summary.Verdict)),
		zap.Int("succeeded", result.Summary.Succeeded),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("slots", result.Summary.TotalSlots))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
