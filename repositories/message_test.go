package repositories

import (
	"chat-direct/domain/chat"
	"chat-direct/errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRepository(t *testing.T, receivers ...chat.UserID) *MessageRepository {
	t.Helper()
	db := openTestDB(t)
	users := NewUserRepository(db)
	for _, r := range receivers {
		require.NoError(t, users.Save(r))
	}
	return NewMessageRepository(db, users, slog.Default())
}

func Test_Create_And_Get_Message(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob")

	created, err := repo.Create("alice", "bob", "this message will self destruct in 5 seconds")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal(chat.StatusSending, created.Status)
	req.False(created.CreatedAt.IsZero())

	fetched, err := repo.Get(created.ID)
	req.NoError(err)
	req.Equal(created, fetched)
}

func Test_Create_Rejections(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob")

	_, err := repo.Create("alice", "bob", "")
	req.ErrorIs(err, errors.ErrEmptyContent)

	_, err = repo.Create("alice", "ghost", "anyone there?")
	req.ErrorIs(err, errors.ErrUnknownReceiver)
}

func Test_Get_UnknownMessage(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	_, err := repo.Get("does-not-exist")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_UpdateStatus_ForwardOnly(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob")

	created, err := repo.Create("alice", "bob", "hello")
	req.NoError(err)

	// sending -> delivered -> read is the legal chain
	updated, err := repo.UpdateStatus(created.ID, chat.StatusDelivered)
	req.NoError(err)
	req.Equal(chat.StatusDelivered, updated.Status)

	updated, err = repo.UpdateStatus(created.ID, chat.StatusRead)
	req.NoError(err)
	req.Equal(chat.StatusRead, updated.Status)

	// Moving backwards or out of read is rejected and nothing is written
	_, err = repo.UpdateStatus(created.ID, chat.StatusDelivered)
	req.ErrorIs(err, errors.ErrInvalidTransition)

	_, err = repo.UpdateStatus(created.ID, chat.StatusFailed)
	req.ErrorIs(err, errors.ErrInvalidTransition)

	fetched, err := repo.Get(created.ID)
	req.NoError(err)
	req.Equal(chat.StatusRead, fetched.Status)
}

func Test_FindPending_OldestFirst(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob")
	at := time.Now().UTC()

	// Creation timestamps are injected so key order is deterministic.
	for i := 1; i <= 3; i++ {
		stamp := at.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return stamp }
		_, err := repo.Create("alice", "bob", fmt.Sprintf("message %d", i))
		req.NoError(err)
	}

	pending, err := repo.FindPending("bob")
	req.NoError(err)
	req.Len(pending, 3)
	req.Equal("message 1", pending[0].Content)
	req.Equal("message 3", pending[2].Content)
}

func Test_FindPending_ExcludesRead(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob")

	first, err := repo.Create("alice", "bob", "seen")
	req.NoError(err)
	_, err = repo.Create("alice", "bob", "not yet")
	req.NoError(err)

	// delivered messages stay pending, read ones leave the backlog
	_, err = repo.UpdateStatus(first.ID, chat.StatusRead)
	req.NoError(err)

	pending, err := repo.FindPending("bob")
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal("not yet", pending[0].Content)
}

func Test_FindPending_ScopedToReceiver(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob", "clara")

	_, err := repo.Create("alice", "bob", "for bob")
	req.NoError(err)
	_, err = repo.Create("alice", "clara", "for clara")
	req.NoError(err)

	pending, err := repo.FindPending("bob")
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal("for bob", pending[0].Content)
}

func Test_Conversation_AscendingAndSymmetric(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "alice", "bob", "clara")
	at := time.Now().UTC()

	stamps := []time.Time{at, at.Add(1 * time.Minute), at.Add(2 * time.Minute)}
	repo.now = func() time.Time { return stamps[0] }
	_, err := repo.Create("alice", "bob", "hi bob")
	req.NoError(err)
	repo.now = func() time.Time { return stamps[1] }
	_, err = repo.Create("bob", "alice", "hi alice")
	req.NoError(err)
	repo.now = func() time.Time { return stamps[2] }
	_, err = repo.Create("alice", "clara", "hi clara")
	req.NoError(err)

	// Both orders of the pair return the same ascending history
	history, err := repo.Conversation("alice", "bob", false)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("hi bob", history[0].Content)
	req.Equal("hi alice", history[1].Content)

	mirrored, err := repo.Conversation("bob", "alice", false)
	req.NoError(err)
	req.Equal(history, mirrored)
}

func Test_SoftDelete_HiddenUnlessRequested(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t, "bob")

	kept, err := repo.Create("alice", "bob", "kept")
	req.NoError(err)
	removed, err := repo.Create("alice", "bob", "removed")
	req.NoError(err)

	req.NoError(repo.SoftDelete(removed.ID))

	history, err := repo.Conversation("alice", "bob", false)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(kept.ID, history[0].ID)

	// The record still exists and shows up when deleted ones are requested
	full, err := repo.Conversation("alice", "bob", true)
	req.NoError(err)
	req.Len(full, 2)

	fetched, err := repo.Get(removed.ID)
	req.NoError(err)
	req.True(fetched.Deleted)
}
