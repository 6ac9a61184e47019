package privacy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/database"
	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/behaviorlab/inconsistency-meter/internal/resilience"
)

// SessionDeleter removes one session through the session workflow so caches
// and subscribers see the deletion too.
type SessionDeleter interface {
	Delete(ctx context.Context, sessionID, reason string) error
}

// PrivacyService handles participant data deletion and retention
type PrivacyService struct {
	repo     *database.Repository
	sessions SessionDeleter
	now      func() time.Time
}

// NewService creates a new privacy service
func NewService(repo *database.Repository, sessions SessionDeleter) *PrivacyService {
	return &PrivacyService{repo: repo, sessions: sessions, now: time.Now}
}

// AnonymizeID hashes an identifier for log lines
func AnonymizeID(id string) string {
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:])[:12]
}

// DeleteSessionData removes every answer, score and question of a session on
// the participant's request.
func (ps *PrivacyService) DeleteSessionData(ctx context.Context, sessionID string) error {
	slog.Info("Initiating participant data deletion", "session", AnonymizeID(sessionID))
	return ps.sessions.Delete(ctx, sessionID, "participant_request")
}

// CleanupExpired deletes sessions older than retentionDays. Zero disables
// retention cleanup. Each session goes through the session workflow so its
// cached score is evicted along with the rows.
func (ps *PrivacyService) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := ps.now().AddDate(0, 0, -retentionDays)
	ids, err := ps.repo.ListSessionIDsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, id := range ids {
		err := ps.sessions.Delete(ctx, id, "retention_expired")
		switch {
		case err == nil:
			deleted++
		case apperrors.ToAppError(err).Category == apperrors.CategoryNotFound:
			// removed by the participant in the meantime
		default:
			return deleted, err
		}
	}

	slog.Info("Data cleanup completed", "cutoff_date", cutoff.Format(time.RFC3339), "sessions_deleted", deleted)
	return deleted, nil
}

// StartRetentionLoop runs CleanupExpired every interval until ctx is done
func (ps *PrivacyService) StartRetentionLoop(ctx context.Context, interval time.Duration, retentionDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := resilience.RetryWithConfig(ctx, resilience.StandardRetryPolicy.Config, func() error {
				_, err := ps.CleanupExpired(ctx, retentionDays)
				return err
			})
			if err != nil {
				slog.Error("Failed to run data cleanup", "error", err)
			}
		}
	}
}

// GetDataRetentionInfo describes the retention policy served by the API
func (ps *PrivacyService) GetDataRetentionInfo(retentionDays int) map[string]interface{} {
	return map[string]interface{}{
		"session_retention_days": retentionDays,
		"raw_media_stored":       false,
		"stored_signals":         []string{"faceScore", "voiceScore", "nlpScore", "reactionDelay"},
		"deletion":               "DELETE /sessions/:id removes answers, questions and scores immediately",
		"disclaimer":             "Scores are heuristic indicators of inconsistency, not evidence of deception",
	}
}
