package calls

import (
	"errors"
	"time"
)

// Sentiment labels produced by the transcription pipeline.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// TranscriptTurn is one speaker turn, time-aligned with the audio so the
// player can highlight the active turn.
type TranscriptTurn struct {
	Index     int     `json:"index"`
	Speaker   string  `json:"speaker"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Text      string  `json:"text"`
	Sentiment string  `json:"sentiment,omitempty"`
}

// ScorecardEntry is one weighted criterion of a call's quality score.
type ScorecardEntry struct {
	Criterion string  `json:"criterion"`
	Weight    float64 `json:"weight"`
	Score     float64 `json:"score"`
	Notes     string  `json:"notes,omitempty"`
}

// Call is a recorded, transcribed and scored phone call.
type Call struct {
	ID          string           `json:"id"`
	Date        time.Time        `json:"date"`
	AgentName   string           `json:"agent_name"`
	Customer    string           `json:"customer"`
	ProjectID   string           `json:"project_id,omitempty"`
	TeamID      string           `json:"team_id,omitempty"`
	DurationSec float64          `json:"duration_sec"`
	Score       float64          `json:"score"`
	Sentiment   string           `json:"sentiment,omitempty"`
	AudioURL    string           `json:"audio_url,omitempty"`
	Transcript  []TranscriptTurn `json:"transcript,omitempty"`
	Scorecard   []ScorecardEntry `json:"scorecard,omitempty"`
}

var (
	ErrNotFound     = errors.New("calls: not found")
	ErrInvalidInput = errors.New("calls: invalid input")
)
