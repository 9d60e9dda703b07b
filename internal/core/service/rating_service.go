package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const (
	minScore = 1
	maxScore = 5
)

type RatingService struct {
	db  port.DatabaseRepository
	log *zap.Logger
}

func NewRatingService(db port.DatabaseRepository, log *zap.Logger) *RatingService {
	return &RatingService{db: db, log: log}
}

// Submit records a score and returns the target's updated summary.
func (s *RatingService) Submit(ctx context.Context, reviewerID, targetID string, score int) (domain.RatingSummary, error) {
	if err := requireID("reviewer id", reviewerID); err != nil {
		return domain.RatingSummary{}, err
	}
	if err := requireID("target id", targetID); err != nil {
		return domain.RatingSummary{}, err
	}
	if reviewerID == targetID {
		return domain.RatingSummary{}, domain.Invalidf("users cannot rate themselves")
	}
	if score < minScore || score > maxScore {
		return domain.RatingSummary{}, domain.Invalidf("score must be between %d and %d, got %d", minScore, maxScore, score)
	}

	rating := domain.Rating{
		ID:         newID(),
		ReviewerID: reviewerID,
		TargetID:   targetID,
		Score:      score,
		CreatedAt:  now(),
	}
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Tx) error {
		return tx.InsertRating(ctx, rating)
	})
	if err != nil {
		s.log.Error("submit rating failed", zap.String("target_id", targetID), zap.Error(err))
		return domain.RatingSummary{}, fmt.Errorf("submit rating: %w", err)
	}

	s.log.Debug("rating submitted", zap.String("target_id", targetID), zap.Int("score", score))
	return s.db.RatingSummary(ctx, targetID)
}

func (s *RatingService) Summary(ctx context.Context, targetID string) (domain.RatingSummary, error) {
	if err := requireID("target id", targetID); err != nil {
		return domain.RatingSummary{}, err
	}
	return s.db.RatingSummary(ctx, targetID)
}
