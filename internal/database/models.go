package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Session is one questionnaire run of a single participant
type Session struct {
	ID           string        `json:"id" db:"id"`
	Status       SessionStatus `json:"status" db:"status"`
	ConsentGiven bool          `json:"consentGiven" db:"consent_given"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty" db:"completed_at"`
}

// Question is a template instantiated for a session
type Question struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"sessionId" db:"session_id"`
	QuestionNumber int       `json:"questionNumber" db:"question_number"`
	QuestionText   string    `json:"questionText" db:"question_text"`
	Category       string    `json:"category" db:"category"`
	PresentedAt    time.Time `json:"presentedAt" db:"presented_at"`
}

// Answer stores the text and raw signals of one submission. Nil signals were
// not captured.
type Answer struct {
	ID            string    `json:"id" db:"id"`
	SessionID     string    `json:"sessionId" db:"session_id"`
	QuestionID    string    `json:"questionId" db:"question_id"`
	AnswerText    string    `json:"answerText" db:"answer_text"`
	FaceScore     *float64  `json:"faceScore" db:"face_score"`
	VoiceScore    *float64  `json:"voiceScore" db:"voice_score"`
	NlpScore      *float64  `json:"nlpScore" db:"nlp_score"`
	ReactionDelay *float64  `json:"reactionDelay" db:"reaction_delay"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// AnswerRecord is an answer joined with its question
type AnswerRecord struct {
	Answer
	QuestionNumber int    `json:"questionNumber"`
	QuestionText   string `json:"questionText"`
	Category       string `json:"category"`
}

// StoredScore is a persisted session score; Payload is the JSON result
type StoredScore struct {
	SessionID  string    `json:"sessionId" db:"session_id"`
	FinalScore float64   `json:"finalScore" db:"final_score"`
	Payload    []byte    `json:"-" db:"payload"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

func NewSession(consent bool) *Session {
	return &Session{
		ID:           uuid.New().String(),
		Status:       StatusInProgress,
		ConsentGiven: consent,
		CreatedAt:    time.Now().UTC(),
	}
}

func NewQuestion(sessionID string, number int, text, category string) *Question {
	return &Question{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		QuestionNumber: number,
		QuestionText:   text,
		Category:       category,
		PresentedAt:    time.Now().UTC(),
	}
}

func NewAnswer(sessionID, questionID, text string) *Answer {
	return &Answer{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		QuestionID: questionID,
		AnswerText: text,
		CreatedAt:  time.Now().UTC(),
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
