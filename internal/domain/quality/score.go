// Package quality derives a 0-100 health score for the portfolio document.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/nexus/internal/state"
)

const (
	MaxScore = 100

	// MinDescriptionLength is the shortest description not penalized.
	MinDescriptionLength = 10
	// StaleAfter is how old the last ingestion may be before the stale penalty.
	StaleAfter = 7 * 24 * time.Hour

	shortDescriptionPenalty = 2
	noRisksPenalty          = 1
	stalePenalty            = 10
)

// Score computes the quality score of doc as of now.
func Score(doc *state.Document, now time.Time) int {
	score := MaxScore
	for _, p := range doc.Projects {
		if len([]rune(p.Description)) < MinDescriptionLength {
			score -= shortDescriptionPenalty
		}
		if len(p.Risks) == 0 {
			score -= noRisksPenalty
		}
	}
	last := doc.Metadata.LastIngestion
	if last == nil || now.Sub(*last) > StaleAfter {
		score -= stalePenalty
	}
	return max(score, 0)
}

// Refresh recomputes and stores the score in the document metadata.
func Refresh(doc *state.Document, now time.Time) int {
	doc.Metadata.QualityScore = Score(doc, now)
	return doc.Metadata.QualityScore
}

// Service computes scores against the store.
type Service struct {
	store  *state.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a quality service.
func NewService(store *state.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Score computes the current score without persisting it.
func (s *Service) Score(ctx context.Context) (int, error) {
	var score int
	err := s.store.View(ctx, func(doc *state.Document) error {
		score = Score(doc, s.now())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scoring state: %w", err)
	}
	return score, nil
}

// Refresh recomputes the score and saves it into the document metadata.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	var score int
	err := s.store.Update(ctx, func(doc *state.Document) error {
		score = Refresh(doc, s.now())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("refreshing quality score: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("quality score refreshed", "score", score)
	}
	return score, nil
}
