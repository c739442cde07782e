package scoring

import "github.com/okian/rentscore/internal/domain/model"

// Calculation is one listing's contribution to a participant's score.
type Calculation struct {
	ListingID  string   `json:"listing_id"`
	Listing    string   `json:"listing"`
	ActualRent *float64 `json:"actual_rent"`
	Guess      *float64 `json:"guess"`
	Error      float64  `json:"error_percent"`
	Included   bool     `json:"included"`
}

// Explanation is the full per-listing breakdown behind a participant's score.
type Explanation struct {
	Participant  string                  `json:"participant"`
	Calculations []Calculation           `json:"calculations"`
	Score        *model.ParticipantScore `json:"score,omitempty"`
}

// Explain reports how each listing feeds into the participant's score.
func Explain(participant string, records []model.PredictionRecord) Explanation {
	exp := Explanation{
		Participant:  participant,
		Calculations: make([]Calculation, 0, len(records)),
	}
	preds := make([]model.Prediction, 0, len(records))
	for _, rec := range records {
		p := rec.For(participant)
		preds = append(preds, p)
		pct, ok := ComputeError(p.ActualRent, p.Guess)
		exp.Calculations = append(exp.Calculations, Calculation{
			ListingID:  rec.ListingID,
			Listing:    rec.Name,
			ActualRent: p.ActualRent,
			Guess:      p.Guess,
			Error:      pct,
			Included:   ok,
		})
	}
	if score, ok := Aggregate(participant, preds); ok {
		exp.Score = &score
	}
	return exp
}
