// Package session runs the questionnaire workflow: sessions, answers, and
// the score calculated over them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/behaviorlab/inconsistency-meter/internal/cache"
	"github.com/behaviorlab/inconsistency-meter/internal/database"
	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/behaviorlab/inconsistency-meter/internal/events"
	"github.com/behaviorlab/inconsistency-meter/internal/monitoring"
	"github.com/behaviorlab/inconsistency-meter/internal/questions"
)

// Metrics is the subset of monitoring.Metrics the service reports to
type Metrics interface {
	IncrementSessionCreated()
	IncrementAnswerSubmitted()
	IncrementAnswerAnalyzed()
	IncrementSessionScored()
	IncrementSessionDeleted()
}

// Service coordinates storage, the scoring engine, the score cache and
// event publishing.
type Service struct {
	repo      *database.Repository
	engine    *analysis.Engine
	scores    cache.ScoreCache
	publisher events.Publisher
	metrics   Metrics
	logger    *monitoring.Logger
}

// Deps bundles the collaborators of a Service. Scores and Publisher are optional.
type Deps struct {
	Repo      *database.Repository
	Engine    *analysis.Engine
	Scores    cache.ScoreCache
	Publisher events.Publisher
	Metrics   Metrics
	Logger    *monitoring.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		engine:    d.Engine,
		scores:    d.Scores,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
}

// AnalyzeRequest asks for the text analysis of one answer without storing it
type AnalyzeRequest struct {
	Question   string
	Answer     string
	FaceStress *float64
}

// SubmitAnswerRequest stores one answer with whatever signals the client captured
type SubmitAnswerRequest struct {
	SessionID     string
	QuestionID    string
	AnswerText    string
	FaceScore     *float64
	VoiceScore    *float64
	NlpScore      *float64
	ReactionDelay *float64
}

// SubmitAnswerResult is the stored answer, its score and the text analysis
// it was scored with.
type SubmitAnswerResult struct {
	Answer     *database.Answer          `json:"answer"`
	Score      analysis.AnswerScore      `json:"score"`
	Evaluation analysis.AnswerEvaluation `json:"analysis"`
}

// Create starts a session. Participation requires explicit consent.
func (s *Service) Create(ctx context.Context, consent bool) (*database.Session, error) {
	if !consent {
		return nil, apperrors.NewValidationError("consent is required to start a session")
	}

	sess := database.NewSession(consent)
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError("failed to create session", err)
	}

	s.count(func(m Metrics) { m.IncrementSessionCreated() })
	slog.Info("Session created", "session_id", sess.ID)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*database.Session, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, s.lookupError(err, "session", sessionID)
	}
	return sess, nil
}

// BootstrapQuestions instantiates the questionnaire for a session once
func (s *Service) BootstrapQuestions(ctx context.Context, sessionID string) ([]*database.Question, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list questions", err)
	}
	if len(existing) > 0 {
		return nil, apperrors.NewConflictError("questions already bootstrapped for this session")
	}

	templates := questions.Templates()
	qs := make([]*database.Question, 0, len(templates))
	for _, t := range templates {
		qs = append(qs, database.NewQuestion(sessionID, t.Number, t.Text, string(t.Category)))
	}

	if err := s.repo.InsertQuestions(ctx, qs); err != nil {
		return nil, apperrors.NewInternalError("failed to store questions", err)
	}
	return qs, nil
}

func (s *Service) ListQuestions(ctx context.Context, sessionID string) ([]*database.Question, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	qs, err := s.repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list questions", err)
	}
	return qs, nil
}

// AnalyzeAnswer runs the text analyses on an ad-hoc question/answer pair
func (s *Service) AnalyzeAnswer(_ context.Context, req AnalyzeRequest) analysis.AnswerEvaluation {
	eval := s.engine.EvaluateAnswer(req.Question, req.Answer, req.FaceStress)
	s.count(func(m Metrics) { m.IncrementAnswerAnalyzed() })
	return eval
}

// SubmitAnswer stores an answer. When the client sent no nlpScore the text
// analysis of the answer supplies it.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResult, error) {
	sess, err := s.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == database.StatusCompleted {
		return nil, apperrors.NewConflictError("session is already completed")
	}

	q, err := s.repo.GetQuestion(ctx, req.SessionID, req.QuestionID)
	if err != nil {
		return nil, s.lookupError(err, "question", req.QuestionID)
	}

	text := strings.TrimSpace(req.AnswerText)
	eval := s.engine.EvaluateAnswer(q.QuestionText, text, req.FaceScore)

	answer := database.NewAnswer(req.SessionID, req.QuestionID, text)
	answer.FaceScore = req.FaceScore
	answer.VoiceScore = req.VoiceScore
	answer.ReactionDelay = req.ReactionDelay
	answer.NlpScore = req.NlpScore
	if answer.NlpScore == nil {
		nlp := eval.NLP.NlpScore
		answer.NlpScore = &nlp
	}

	if err := s.repo.InsertAnswer(ctx, answer); err != nil {
		return nil, apperrors.NewInternalError("failed to store answer", err)
	}

	score := s.engine.Scorer().ScoreAnswer(identityOf(answer.ID, q), signalsOf(answer))

	s.count(func(m Metrics) { m.IncrementAnswerSubmitted() })
	if s.logger != nil {
		mismatch := eval.Emotion != nil && eval.Emotion.Mismatch
		s.logger.AnswerLogger(req.SessionID, req.QuestionID, eval.NLP.Details.AnswerLength, *answer.NlpScore, mismatch)
	}

	return &SubmitAnswerResult{Answer: answer, Score: score, Evaluation: eval}, nil
}

// CalculateScore scores every stored answer, persists and caches the result,
// completes the session and announces the score.
func (s *Service) CalculateScore(ctx context.Context, sessionID string) (*analysis.SessionScoreResult, error) {
	start := time.Now()

	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListAnswerRecords(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load answers", err)
	}

	inputs := make([]analysis.AnswerInput, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, analysis.AnswerInput{
			AnswerIdentity: analysis.AnswerIdentity{
				AnswerID:       rec.ID,
				QuestionID:     rec.QuestionID,
				QuestionNumber: rec.QuestionNumber,
				QuestionText:   rec.QuestionText,
				Category:       rec.Category,
			},
			Signals:     signalsOf(&rec.Answer),
			SubmittedAt: rec.CreatedAt,
		})
	}

	result := s.engine.ScoreSession(sessionID, inputs)

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode score", err)
	}
	now := time.Now().UTC()
	if err := s.repo.SaveSessionScore(ctx, &database.StoredScore{
		SessionID:  sessionID,
		FinalScore: result.FinalScore,
		Payload:    payload,
		CreatedAt:  now,
	}); err != nil {
		return nil, apperrors.NewInternalError("failed to store score", err)
	}
	if err := s.repo.CompleteSession(ctx, sessionID, now); err != nil {
		return nil, s.lookupError(err, "session", sessionID)
	}

	if s.scores != nil {
		if err := s.scores.Set(ctx, &result); err != nil {
			slog.Warn("Failed to cache session score", "session_id", sessionID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSessionScored(ctx, &result); err != nil {
			slog.Warn("Failed to publish session.scored", "session_id", sessionID, "error", err)
		}
	}

	s.count(func(m Metrics) { m.IncrementSessionScored() })
	if s.logger != nil {
		s.logger.ScoringLogger(sessionID, result.AnsweredQuestions, result.TotalQuestions, result.FinalScore, time.Since(start))
	}

	return &result, nil
}

// GetScore returns the last calculated score of a session
func (s *Service) GetScore(ctx context.Context, sessionID string) (*analysis.SessionScoreResult, error) {
	// a purged session must not be served from a cache that outlived it
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	if s.scores != nil {
		cached, err := s.scores.Get(ctx, sessionID)
		if s.logger != nil {
			s.logger.CacheLogger("score", sessionID, err == nil)
		}
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("Score cache read failed", "session_id", sessionID, "error", err)
		}
	}

	stored, err := s.repo.GetSessionScore(ctx, sessionID)
	if err != nil {
		return nil, s.lookupError(err, "score", sessionID)
	}

	var result analysis.SessionScoreResult
	if err := json.Unmarshal(stored.Payload, &result); err != nil {
		return nil, apperrors.NewInternalError("stored score is corrupt", err)
	}

	if s.scores != nil {
		if err := s.scores.Set(ctx, &result); err != nil {
			slog.Warn("Failed to cache session score", "session_id", sessionID, "error", err)
		}
	}
	return &result, nil
}

// QuestionConsistency compares every answer given to one question
func (s *Service) QuestionConsistency(ctx context.Context, sessionID, questionID string) (*analysis.ConsistencyAnalysisResult, error) {
	q, err := s.repo.GetQuestion(ctx, sessionID, questionID)
	if err != nil {
		return nil, s.lookupError(err, "question", questionID)
	}

	texts, err := s.repo.ListAnswerTextsForQuestion(ctx, sessionID, questionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load answers", err)
	}

	result := s.engine.Text().AnalyzeAcrossAnswers(q.QuestionText, texts)
	return &result, nil
}

// Delete removes a session with all answers and scores
func (s *Service) Delete(ctx context.Context, sessionID, reason string) error {
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return s.lookupError(err, "session", sessionID)
	}

	if s.scores != nil {
		if err := s.scores.Delete(ctx, sessionID); err != nil {
			slog.Warn("Failed to evict cached score", "session_id", sessionID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSessionDeleted(ctx, sessionID, reason); err != nil {
			slog.Warn("Failed to publish session.deleted", "session_id", sessionID, "error", err)
		}
	}

	s.count(func(m Metrics) { m.IncrementSessionDeleted() })
	slog.Info("Session deleted", "session_id", sessionID, "reason", reason)
	return nil
}

// StoredSessions counts the sessions currently held in the database
func (s *Service) StoredSessions(ctx context.Context) (int, error) {
	n, err := s.repo.CountSessions(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count sessions", err)
	}
	return n, nil
}

func (s *Service) count(f func(Metrics)) {
	if s.metrics != nil {
		f(s.metrics)
	}
}

func (s *Service) lookupError(err error, resource, id string) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return apperrors.NewInternalError(fmt.Sprintf("failed to load %s", resource), err)
}

func identityOf(answerID string, q *database.Question) analysis.AnswerIdentity {
	return analysis.AnswerIdentity{
		AnswerID:       answerID,
		QuestionID:     q.ID,
		QuestionNumber: q.QuestionNumber,
		QuestionText:   q.QuestionText,
		Category:       q.Category,
	}
}

func signalsOf(a *database.Answer) analysis.Signals {
	return analysis.Signals{
		Face:                 a.FaceScore,
		Voice:                a.VoiceScore,
		NLP:                  a.NlpScore,
		ReactionDelaySeconds: a.ReactionDelay,
	}
}
