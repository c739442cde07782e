// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strconv"
)

// Prediction pairs one listing's actual rent with one participant's guess.
// A nil pointer means the value is missing from the feed.
type Prediction struct {
	ListingID  string   `json:"listing_id,omitempty"`
	ActualRent *float64 `json:"actual_rent"`
	Guess      *float64 `json:"guess"`
}

// PredictionRecord is one listing with every participant's guess for it.
type PredictionRecord struct {
	ListingID  string
	Name       string
	ActualRent *float64
	Guesses    map[string]*float64 // participant name -> guess
}

// For returns the prediction the named participant made for this listing.
func (r PredictionRecord) For(participant string) Prediction {
	return Prediction{
		ListingID:  r.ListingID,
		ActualRent: r.ActualRent,
		Guess:      r.Guesses[participant],
	}
}

// ParticipantScore is the result of folding one participant's predictions
// into a single accuracy score.
type ParticipantScore struct {
	ParticipantName      string  `json:"participant_name"`
	AccuracyScore        float64 `json:"accuracy_score"`
	AverageError         float64 `json:"average_error"`
	ValidPredictionCount int     `json:"valid_prediction_count"`
	SkippedCount         int     `json:"skipped_count"`
}

// DisplayScore is the accuracy score rounded to one decimal place. The
// exact binary value is rounded, so 88.55 (stored as 88.5499...) shows as
// 88.5.
func (s ParticipantScore) DisplayScore() float64 {
	if math.IsNaN(s.AccuracyScore) || math.IsInf(s.AccuracyScore, 0) {
		return s.AccuracyScore
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(s.AccuracyScore, 'f', 1, 64), 64)
	if err != nil {
		return s.AccuracyScore
	}
	return v
}

// EventValue is the integer persisted on a ScoreEvent. The one-decimal
// display value is rounded again, half to even.
func (s ParticipantScore) EventValue() int {
	return int(math.RoundToEven(s.DisplayScore()))
}

// Float returns a pointer to v. Handy for building predictions by hand.
func Float(v float64) *float64 { return &v }
