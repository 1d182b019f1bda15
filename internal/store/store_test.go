package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Conversations().Commit(context.Background(), "u1", json.RawMessage(`{"symptoms":["恶寒"]}`), nil))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	data, found, err := s.Conversations().Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"symptoms":["恶寒"]}`, string(data))
}

func TestSequenceCounter_Monotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prev := int64(0)
	for i := 0; i < 5; i++ {
		n, err := s.seq.Next(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestConversation_LoadMissing(t *testing.T) {
	s := openTestStore(t)
	data, found, err := s.Conversations().Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestConversation_CommitOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Conversations()

	require.NoError(t, repo.Commit(ctx, "u1", json.RawMessage(`{"symptoms":["恶寒"]}`), nil))
	require.NoError(t, repo.Commit(ctx, "u1", json.RawMessage(`{"symptoms":["恶寒","发热"]}`), &TurnEventData{
		UserID: "u1", TurnID: "t2", Status: "SUSPECTED", Pattern: "表证", Score: 20, HasUpdate: true,
		Terms: []string{"恶寒", "发热"},
	}))

	data, found, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"symptoms":["恶寒","发热"]}`, string(data))

	turns, err := s.Events().QueryTurns(ctx, "u1", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "t2", turns[0].TurnID)
	assert.Equal(t, "表证", turns[0].Pattern)
	assert.True(t, turns[0].HasUpdate)
	assert.Equal(t, []string{"恶寒", "发热"}, turns[0].Terms)
}

func TestConversation_CommitRejectsInvalidJSON(t *testing.T) {
	s := openTestStore(t)
	err := s.Conversations().Commit(context.Background(), "u1", json.RawMessage(`{`), nil)
	assert.Error(t, err)
}

func TestConversation_CommitCancelledKeepsPrevious(t *testing.T) {
	s := openTestStore(t)
	repo := s.Conversations()
	require.NoError(t, repo.Commit(context.Background(), "u1", json.RawMessage(`{"symptoms":["恶寒"]}`), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, repo.Commit(ctx, "u1", json.RawMessage(`{"symptoms":["发热"]}`), nil))

	data, _, err := repo.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"symptoms":["恶寒"]}`, string(data))
}

func TestConversation_Reset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Conversations()
	require.NoError(t, repo.Commit(ctx, "u1", json.RawMessage(`{}`), nil))

	existed, err := repo.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestEventLog_LLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	log := s.Events()

	events := []LLMRequestEventData{
		{Provider: "deepseek", Model: "deepseek-chat", Purpose: "term-extract", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "deepseek", Model: "deepseek-chat", Purpose: "reply", InputTokens: 200, OutputTokens: 80, LatencyMs: 500, Success: true},
		{Provider: "deepseek", Model: "deepseek-chat", Purpose: "term-extract", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: false, ErrorMessage: "timeout"},
	}
	for _, e := range events {
		require.NoError(t, log.AppendLLMRequest(ctx, e))
	}

	all, err := log.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "timeout", all[0].ErrorMessage, "newest first")

	limited, err := log.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "reply"})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "reply", limited[0].Purpose)

	got, err := log.GetLLMEvent(ctx, all[2].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "req", got.RequestBody)
	assert.Equal(t, "resp", got.ResponseBody)
	assert.True(t, got.Success)

	missing, err := log.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := log.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, PurposeUsage{Purpose: "term-extract", Calls: 2, InputTokens: 150, OutputTokens: 30, AvgLatencyMs: 200}, byPurpose[0])

	byModel, err := log.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 3, byModel[0].Calls)
	assert.Equal(t, 350, byModel[0].InputTokens)
}

func TestEventLog_TurnsFilterAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	log := s.Events()

	require.NoError(t, log.AppendTurn(ctx, TurnEventData{UserID: "a", TurnID: "1", Status: "UNKNOWN"}))
	require.NoError(t, log.AppendTurn(ctx, TurnEventData{UserID: "b", TurnID: "2", Status: "UNKNOWN"}))
	require.NoError(t, log.AppendTurn(ctx, TurnEventData{UserID: "a", TurnID: "3", Status: "CONFIRMED"}))

	turns, err := log.QueryTurns(ctx, "a", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "1", turns[0].TurnID)
	assert.Equal(t, "3", turns[1].TurnID)
	assert.Empty(t, turns[0].Terms)

	after, err := log.QueryTurns(ctx, "", QueryOpts{After: turns[0].Sequence})
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestDefaultDBPath_Env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "x.db")
	t.Setenv("TCMDX_DB", want)
	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.DirExists(t, filepath.Dir(want))
}

func TestDefaultDBPath_XDG(t *testing.T) {
	t.Setenv("TCMDX_DB", "")
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tcmdx", "tcmdx.db"), got)
}
