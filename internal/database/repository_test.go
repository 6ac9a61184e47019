package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func fp(v float64) *float64 { return &v }

func seedSession(t *testing.T, repo *Repository) (*Session, []*Question) {
	t.Helper()
	ctx := context.Background()

	s := NewSession(true)
	require.NoError(t, repo.CreateSession(ctx, s))

	questions := []*Question{
		NewQuestion(s.ID, 2, "Dün akşam ne yaptın?", "son_aktiviteler"),
		NewQuestion(s.ID, 1, "Eski sevgilini özlüyor musun?", "gecmis_iliski"),
	}
	require.NoError(t, repo.InsertQuestions(ctx, questions))
	return s, questions
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := NewSession(true)
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.True(t, got.ConsentGiven)
	assert.Nil(t, got.CompletedAt)

	at := time.Now().UTC()
	require.NoError(t, repo.CompleteSession(ctx, s.ID, at))

	got, err = repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, at, *got.CompletedAt, time.Millisecond)

	_, err = repo.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.CompleteSession(ctx, "missing", at), ErrNotFound)
}

func TestQuestions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s, questions := seedSession(t, repo)

	listed, err := repo.ListQuestions(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 1, listed[0].QuestionNumber)
	assert.Equal(t, 2, listed[1].QuestionNumber)

	q, err := repo.GetQuestion(ctx, s.ID, questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Dün akşam ne yaptın?", q.QuestionText)

	_, err = repo.GetQuestion(ctx, "other-session", questions[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	dup := []*Question{NewQuestion(s.ID, 1, "tekrar", "acik_uclu")}
	assert.Error(t, repo.InsertQuestions(ctx, dup), "question numbers are unique per session")

	empty, err := repo.ListQuestions(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAnswerRecordsKeepNullSignals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s, questions := seedSession(t, repo)

	first := NewAnswer(s.ID, questions[0].ID, "Evde kitap okudum")
	first.FaceScore = fp(0)
	first.ReactionDelay = fp(2.5)
	require.NoError(t, repo.InsertAnswer(ctx, first))

	second := NewAnswer(s.ID, questions[1].ID, "Bilmiyorum")
	second.VoiceScore = fp(7.5)
	second.NlpScore = fp(3.05)
	require.NoError(t, repo.InsertAnswer(ctx, second))

	records, err := repo.ListAnswerRecords(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// ordered by question number
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, 1, records[0].QuestionNumber)
	assert.Equal(t, "gecmis_iliski", records[0].Category)
	assert.Nil(t, records[0].FaceScore)
	assert.Equal(t, fp(7.5), records[0].VoiceScore)

	assert.Equal(t, first.ID, records[1].ID)
	require.NotNil(t, records[1].FaceScore, "a captured zero is not absent")
	assert.Equal(t, 0.0, *records[1].FaceScore)
	assert.Nil(t, records[1].VoiceScore)
	assert.Nil(t, records[1].NlpScore)
	assert.Equal(t, fp(2.5), records[1].ReactionDelay)
}

func TestListAnswerTextsForQuestion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s, questions := seedSession(t, repo)

	a1 := NewAnswer(s.ID, questions[0].ID, "ilk")
	a2 := NewAnswer(s.ID, questions[0].ID, "ikinci")
	a2.CreatedAt = a1.CreatedAt.Add(time.Second)
	require.NoError(t, repo.InsertAnswer(ctx, a2))
	require.NoError(t, repo.InsertAnswer(ctx, a1))
	require.NoError(t, repo.InsertAnswer(ctx, NewAnswer(s.ID, questions[1].ID, "başka")))

	texts, err := repo.ListAnswerTextsForQuestion(ctx, s.ID, questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ilk", "ikinci"}, texts)
}

func TestSessionScoreUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s, _ := seedSession(t, repo)

	_, err := repo.GetSessionScore(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC()
	require.NoError(t, repo.SaveSessionScore(ctx, &StoredScore{SessionID: s.ID, FinalScore: 40, Payload: []byte(`{"finalScore":40}`), CreatedAt: now}))
	require.NoError(t, repo.SaveSessionScore(ctx, &StoredScore{SessionID: s.ID, FinalScore: 55.5, Payload: []byte(`{"finalScore":55.5}`), CreatedAt: now}))

	got, err := repo.GetSessionScore(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.5, got.FinalScore)
	assert.JSONEq(t, `{"finalScore":55.5}`, string(got.Payload))
}

func TestDeleteSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s, questions := seedSession(t, repo)
	require.NoError(t, repo.InsertAnswer(ctx, NewAnswer(s.ID, questions[0].ID, "x")))
	require.NoError(t, repo.SaveSessionScore(ctx, &StoredScore{SessionID: s.ID, Payload: []byte(`{}`), CreatedAt: time.Now().UTC()}))

	require.NoError(t, repo.DeleteSession(ctx, s.ID))

	_, err := repo.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	records, err := repo.ListAnswerRecords(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
	_, err = repo.GetSessionScore(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.DeleteSession(ctx, s.ID), ErrNotFound)
}

func TestListSessionIDsBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := NewSession(true)
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -40)
	require.NoError(t, repo.CreateSession(ctx, old))
	fresh := NewSession(true)
	require.NoError(t, repo.CreateSession(ctx, fresh))

	ids, err := repo.ListSessionIDsBefore(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID}, ids)

	count, err := repo.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "listing deletes nothing")
}

func TestPoolStats(t *testing.T) {
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	stats := db.GetPoolStats()
	assert.Equal(t, 8, stats["max_open_connections"])

	_, err = db.GetPreparedStatement("unknown")
	assert.Error(t, err)
}
