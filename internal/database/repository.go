package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("record not found")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, consent_given, created_at, completed_at)
		VALUES (?, ?, ?, ?, NULL)
	`, s.ID, s.Status, s.ConsentGiven, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	var completed sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, consent_given, created_at, completed_at
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Status, &s.ConsentGiven, &s.CreatedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if completed.Valid {
		t := completed.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

// CompleteSession marks the session completed at the given time
func (r *Repository) CompleteSession(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?
	`, StatusCompleted, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	return expectRow(res)
}

// InsertQuestions stores all questions in one transaction
func (r *Repository) InsertQuestions(ctx context.Context, questions []*Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (id, session_id, question_number, question_text, category, presented_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare question insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range questions {
		if _, err := stmt.ExecContext(ctx, q.ID, q.SessionID, q.QuestionNumber, q.QuestionText, q.Category, q.PresentedAt); err != nil {
			return fmt.Errorf("failed to insert question %d: %w", q.QuestionNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit questions: %w", err)
	}
	return nil
}

// ListQuestions returns the session's questions ordered by number
func (r *Repository) ListQuestions(ctx context.Context, sessionID string) ([]*Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, question_number, question_text, category, presented_at
		FROM questions WHERE session_id = ?
		ORDER BY question_number ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []*Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.SessionID, &q.QuestionNumber, &q.QuestionText, &q.Category, &q.PresentedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, &q)
	}
	return questions, rows.Err()
}

// GetQuestion looks up a question inside a session
func (r *Repository) GetQuestion(ctx context.Context, sessionID, questionID string) (*Question, error) {
	var q Question
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, question_number, question_text, category, presented_at
		FROM questions WHERE id = ? AND session_id = ?
	`, questionID, sessionID).Scan(&q.ID, &q.SessionID, &q.QuestionNumber, &q.QuestionText, &q.Category, &q.PresentedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query question: %w", err)
	}
	return &q, nil
}

func (r *Repository) InsertAnswer(ctx context.Context, a *Answer) error {
	stmt, err := r.db.GetPreparedStatement(stmtInsertAnswer)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		a.ID, a.SessionID, a.QuestionID, a.AnswerText,
		nullFloat(a.FaceScore), nullFloat(a.VoiceScore), nullFloat(a.NlpScore), nullFloat(a.ReactionDelay),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

// ListAnswerRecords returns every answer of a session joined with its
// question, ordered by question number then submission time.
func (r *Repository) ListAnswerRecords(ctx context.Context, sessionID string) ([]*AnswerRecord, error) {
	stmt, err := r.db.GetPreparedStatement(stmtListAnswerRecords)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	records := []*AnswerRecord{}
	for rows.Next() {
		var rec AnswerRecord
		var face, voice, nlp, delay sql.NullFloat64
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.QuestionID, &rec.AnswerText,
			&face, &voice, &nlp, &delay, &rec.CreatedAt,
			&rec.QuestionNumber, &rec.QuestionText, &rec.Category,
		); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		rec.FaceScore = floatPtr(face)
		rec.VoiceScore = floatPtr(voice)
		rec.NlpScore = floatPtr(nlp)
		rec.ReactionDelay = floatPtr(delay)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// ListAnswerTextsForQuestion returns all texts given to one question, oldest first
func (r *Repository) ListAnswerTextsForQuestion(ctx context.Context, sessionID, questionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT answer_text FROM answers
		WHERE session_id = ? AND question_id = ?
		ORDER BY created_at ASC
	`, sessionID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answer texts: %w", err)
	}
	defer rows.Close()

	texts := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan answer text: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

// SaveSessionScore upserts the latest score of a session
func (r *Repository) SaveSessionScore(ctx context.Context, s *StoredScore) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_scores (session_id, final_score, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			final_score = excluded.final_score,
			payload = excluded.payload,
			created_at = excluded.created_at
	`, s.SessionID, s.FinalScore, string(s.Payload), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session score: %w", err)
	}
	return nil
}

func (r *Repository) GetSessionScore(ctx context.Context, sessionID string) (*StoredScore, error) {
	var s StoredScore
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, final_score, payload, created_at
		FROM session_scores WHERE session_id = ?
	`, sessionID).Scan(&s.SessionID, &s.FinalScore, &payload, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session score: %w", err)
	}
	s.Payload = []byte(payload)
	return &s, nil
}

// DeleteSession removes a session and everything recorded for it. It returns
// ErrNotFound when the session does not exist.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	n, err := r.deleteSessions(ctx, `id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSessionIDsBefore returns the ids of sessions created before cutoff
func (r *Repository) ListSessionIDsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM sessions WHERE created_at < ? ORDER BY created_at`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) deleteSessions(ctx context.Context, where string, arg interface{}) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectIDs := `SELECT id FROM sessions WHERE ` + where
	children := []string{
		`DELETE FROM answers WHERE session_id IN (` + selectIDs + `)`,
		`DELETE FROM session_scores WHERE session_id IN (` + selectIDs + `)`,
		`DELETE FROM questions WHERE session_id IN (` + selectIDs + `)`,
	}
	for _, q := range children {
		if _, err := tx.ExecContext(ctx, q, arg); err != nil {
			return 0, fmt.Errorf("failed to delete session data: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE `+where, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return n, nil
}

// CountSessions returns the number of stored sessions
func (r *Repository) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
