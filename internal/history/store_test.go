package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < 6; i++ {
		err := s.Append(ctx, Entry{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			User:      fmt.Sprintf("question %d", i),
			Assistant: fmt.Sprintf("answer %d", i),
		})
		require.NoError(t, err)
	}

	recent, err := s.Recent(ctx, 4)
	require.NoError(t, err)
	require.Len(t, recent, 4)

	// Last four entries, oldest first.
	assert.Equal(t, "question 2", recent[0].User)
	assert.Equal(t, "question 5", recent[3].User)
	assert.Equal(t, "answer 3", recent[1].Assistant)
	assert.True(t, recent[0].Timestamp.Before(recent[3].Timestamp))
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := openTestStore(t)

	recent, err := s.Recent(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestAppendDefaultsTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, Entry{User: "hi", Assistant: "hello"}))

	recent, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.WithinDuration(t, time.Now(), recent[0].Timestamp, time.Minute)
}

func TestDump(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, Entry{User: "status report", Assistant: "Systems optimal."}))

	dump, err := s.Dump(ctx)
	require.NoError(t, err)
	assert.Contains(t, dump, "--- CONVERSATION HISTORY ---")
	assert.Contains(t, dump, "User: status report")
	assert.Contains(t, dump, "Nimbus: Systems optimal.")
}

func TestDumpEmpty(t *testing.T) {
	s := openTestStore(t)

	dump, err := s.Dump(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dump, "No history records found.")
}
