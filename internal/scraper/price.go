package scraper

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/slots"
	"github.com/shehryarbajwa/courtscout/internal/verify"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// VerifyPrice reads the price of one exact slot from its popover. Failing
// steps are reported through the result's source tag; only input errors,
// session failures and an unreachable venue page are returned as errors.
func (s *Service) VerifyPrice(ctx context.Context, req models.PriceQuery) (*models.PriceResult, error) {
	q, err := parsePrice(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := s.log.With(zap.String("run_id", runID), zap.String("venue", q.venue))

	ctx, span := s.tracer.Start(ctx, "verify", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("venue", q.venue),
		attribute.String("resource", q.resource),
	))
	defer span.End()

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		log.Error("❌ failed to acquire session", zap.Error(err))
		return nil, err
	}
	defer sess.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.VerifyDeadline)
	defer cancel()

	diag := &models.VerifyDiagnostics{
		URL:   VenueURL(s.cfg.BaseURL, q.venue),
		Steps: []string{},
	}
	result := &models.PriceResult{
		RunID:      runID,
		ResourceID: q.resource,
		Date:       q.date.Format(dateLayout),
		Start:      q.start,
		End:        q.end,
		Debug:      diag,
	}

	if _, err := s.land(ctx, sess, q.venue, &diag.Steps); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			diag.DeadlineHit = true
			result.Price = models.PricePlaceholder
			result.Source = verify.TagNotClicked
			return result, nil
		}
		return nil, &VenueError{VenueID: q.venue, Err: err, Debug: diag}
	}

	diag.Picker, _ = s.navigateCalendar(ctx, sess, q.date)

	name := ""
	if html, err := sess.HTML(ctx); err == nil {
		if resources, err := slots.Resources(html, s.cfg.Locators); err == nil {
			name = resources[q.resource].Name
		}
	}

	vctx, vspan := s.startSpan(ctx, "popover")
	v := &verify.Verifier{
		Page:           sess,
		Locators:       s.cfg.Locators,
		MaxSweeps:      s.cfg.MaxScrollSweeps,
		PopoverTimeout: s.cfg.PopoverTimeout,
	}
	res := v.Verify(vctx, verify.Request{
		ResourceID:   q.resource,
		ResourceName: name,
		Start:        q.start,
		End:          q.end,
		Duration:     q.duration,
	}, diag)
	vspan.SetAttributes(attribute.String("tag", res.Tag))
	vspan.End()

	result.Price = res.Price
	result.Source = res.Tag
	log.Info("✓ price verified",
		zap.String("resource", q.resource),
		zap.String("tag", res.Tag),
		zap.String("price", res.Price))
	return result, nil
}
