package events

import (
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeSessionScored  EventType = "session.scored"
	EventTypeSessionDeleted EventType = "session.deleted"
)

// Event is the envelope of every published message
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionScoredPayload summarises a calculated score. Per-answer details stay
// in the service; consumers fetch them through the API if needed.
type SessionScoredPayload struct {
	SessionID         string                            `json:"sessionId"`
	FinalScore        float64                           `json:"finalScore"`
	TotalQuestions    int                               `json:"totalQuestions"`
	AnsweredQuestions int                               `json:"answeredQuestions"`
	CategoryBreakdown map[string]analysis.CategoryStats `json:"categoryBreakdown"`
}

type SessionDeletedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

func newEvent(t EventType, payload interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func NewSessionScoredEvent(result *analysis.SessionScoreResult) Event {
	return newEvent(EventTypeSessionScored, SessionScoredPayload{
		SessionID:         result.SessionID,
		FinalScore:        result.FinalScore,
		TotalQuestions:    result.TotalQuestions,
		AnsweredQuestions: result.AnsweredQuestions,
		CategoryBreakdown: result.CategoryBreakdown,
	})
}

func NewSessionDeletedEvent(sessionID, reason string) Event {
	return newEvent(EventTypeSessionDeleted, SessionDeletedPayload{
		SessionID: sessionID,
		Reason:    reason,
	})
}
