// Package sequence computes per-work-site record titles of the form
// "<work site> - NNN".
//
// By default the number is one more than the count of existing records
// linked to the work site. Two submissions for the same site processed at
// the same time can therefore get the same title. When a Counter is
// configured, numbers come from an atomic counter seeded with that count.
package sequence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kylejryan/survey-sync/internal/metrics"
	"github.com/kylejryan/survey-sync/internal/models"
	"github.com/kylejryan/survey-sync/internal/notion"
)

// Querier counts records.
type Querier interface {
	Query(ctx context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error)
}

// Counter hands out increasing numbers per key, starting after floor.
type Counter interface {
	Next(ctx context.Context, key string, floor int) (int, error)
}

// Sequencer builds record titles.
type Sequencer struct {
	store     Querier
	recordsDB string
	counter   Counter // optional
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New returns a Sequencer counting records in recordsDB. counter may be nil.
func New(store Querier, recordsDB string, counter Counter, m *metrics.Metrics, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		store:     store,
		recordsDB: recordsDB,
		counter:   counter,
		metrics:   m,
		logger:    logger,
	}
}

// Format renders a title.
func Format(siteName string, n int) string {
	return fmt.Sprintf("%s - %03d", siteName, n)
}

// Next returns the title for the next record of the work site. It never
// fails: any error yields sequence 001.
func (s *Sequencer) Next(ctx context.Context, siteName, siteID string) string {
	pages, err := s.store.Query(ctx, s.recordsDB, notion.RelationContains(models.PropWorkSite, siteID))
	if err != nil {
		s.logger.Error("record count failed, using first sequence", "work_site", siteName, "err", err)
		s.metrics.TitleFallback()
		return Format(siteName, 1)
	}
	count := len(pages)
	n := count + 1

	if s.counter != nil {
		v, err := s.counter.Next(ctx, siteID, count)
		switch {
		case err != nil:
			s.logger.Warn("sequence counter failed, using record count", "work_site", siteName, "err", err)
		case v > n:
			n = v
		}
	}
	return Format(siteName, n)
}
