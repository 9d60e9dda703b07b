package domain

import "time"

type Rating struct {
	ID         string
	ReviewerID string
	TargetID   string
	Score      int
	CreatedAt  time.Time
}

type RatingSummary struct {
	TargetID string
	Average  float64
	Count    int
}

// DefaultRating is reported for users nobody has rated yet.
const DefaultRating = 5.0
