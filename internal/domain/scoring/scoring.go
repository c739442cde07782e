// Package scoring turns raw rent guesses into percentage errors and folds a
// participant's errors into a single accuracy score.
package scoring

import (
	"math"

	"github.com/okian/rentscore/internal/domain/model"
)

// perfectScore is the accuracy of a participant with zero average error.
const perfectScore = 100

// ComputeError returns the absolute percentage error of guess against
// actualRent. ok is false when the pair is not applicable: a missing or zero
// rent, a missing guess, the zero "skipped" guess, or a non-finite value.
func ComputeError(actualRent, guess *float64) (pct float64, ok bool) {
	if actualRent == nil || guess == nil {
		return 0, false
	}
	actual, g := *actualRent, *guess
	if !finite(actual) || !finite(g) || actual == 0 || g == 0 {
		return 0, false
	}
	return math.Abs(g-actual) / actual * 100, true
}

// Aggregate folds a participant's predictions into a ParticipantScore.
// ok is false when none of the predictions is valid; that participant
// produces no score for this run.
func Aggregate(participantName string, predictions []model.Prediction) (model.ParticipantScore, bool) {
	var sum neumaier
	valid := 0
	for _, p := range predictions {
		pct, ok := ComputeError(p.ActualRent, p.Guess)
		if !ok {
			continue
		}
		sum.add(pct)
		valid++
	}
	if valid == 0 {
		return model.ParticipantScore{}, false
	}

	avg := sum.value() / float64(valid)
	return model.ParticipantScore{
		ParticipantName:      participantName,
		AccuracyScore:        perfectScore - avg,
		AverageError:         avg,
		ValidPredictionCount: valid,
		SkippedCount:         len(predictions) - valid,
	}, true
}

// AggregateRecords scores every named participant over the given listings.
// Participants without a single valid prediction are left out of the result,
// whose order follows participants.
func AggregateRecords(participants []string, records []model.PredictionRecord) []model.ParticipantScore {
	out := make([]model.ParticipantScore, 0, len(participants))
	preds := make([]model.Prediction, len(records))
	for _, name := range participants {
		for i, rec := range records {
			preds[i] = rec.For(name)
		}
		if score, ok := Aggregate(name, preds); ok {
			out = append(out, score)
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// neumaier is a compensated float64 accumulator.
type neumaier struct {
	sum, c float64
}

func (n *neumaier) add(v float64) {
	t := n.sum + v
	if math.Abs(n.sum) >= math.Abs(v) {
		n.c += (n.sum - t) + v
	} else {
		n.c += (v - t) + n.sum
	}
	n.sum = t
}

func (n *neumaier) value() float64 { return n.sum + n.c }
