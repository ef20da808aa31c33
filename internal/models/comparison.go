package models

type Status string

const (
	StatusCorrect   Status = "correct"
	StatusPartial   Status = "partial"
	StatusClose     Status = "close"
	StatusIncorrect Status = "incorrect"
)

type Direction string

const (
	DirectionHigher Direction = "higher"
	DirectionLower  Direction = "lower"
)

// FieldVerdict is the outcome for a single compared field. Direction is only
// set on close year/track verdicts and points to where the target lies.
type FieldVerdict struct {
	Status    Status    `json:"status" bson:"status"`
	Direction Direction `json:"direction,omitempty" bson:"direction,omitempty"`
}

type Comparison struct {
	Album  FieldVerdict `json:"album" bson:"album"`
	Artist FieldVerdict `json:"artist" bson:"artist"`
	Year   FieldVerdict `json:"year" bson:"year"`
	Decade FieldVerdict `json:"decade" bson:"decade"`
	Genre  FieldVerdict `json:"genre" bson:"genre"`
	Tracks FieldVerdict `json:"tracks" bson:"tracks"`
}

func Verdict(s Status) FieldVerdict {
	return FieldVerdict{Status: s}
}
