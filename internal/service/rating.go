package service

import (
	"math"

	"github.com/Baaaki/yamdb/internal/repository"
)

// RatingAggregator derives title ratings from review scores on read.
// Ratings are never stored.
type RatingAggregator struct {
	reviewRepo *repository.ReviewRepository
}

func NewRatingAggregator(reviewRepo *repository.ReviewRepository) *RatingAggregator {
	return &RatingAggregator{reviewRepo: reviewRepo}
}

// Ratings returns the rounded mean score per title id. Titles without
// reviews map to nil.
func (a *RatingAggregator) Ratings(titleIDs []uint) (map[uint]*int, error) {
	averages, err := a.reviewRepo.AverageScores(titleIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uint]*int, len(titleIDs))
	for _, id := range titleIDs {
		avg, ok := averages[id]
		if !ok {
			out[id] = nil
			continue
		}
		rating := RoundRating(avg)
		out[id] = &rating
	}
	return out, nil
}

// RoundRating rounds half away from zero.
func RoundRating(avg float64) int {
	return int(math.Round(avg))
}
