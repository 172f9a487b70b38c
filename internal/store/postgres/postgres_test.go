package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestMarkCreated(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO marks`).
		WithArgs("vote", "like", int64(1), int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}).AddRow("like"))

	created, err := New(mock).Mark(context.Background(), models.RelationLike, 1, 7)
	require.NoError(t, err)
	require.True(t, created)
}

func TestMarkAlreadyHeld(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO marks`).
		WithArgs("vote", "like", int64(1), int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}))
	mock.ExpectQuery(`SELECT relation FROM marks`).
		WithArgs("vote", int64(1), int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}).AddRow("like"))

	created, err := New(mock).Mark(context.Background(), models.RelationLike, 1, 7)
	require.NoError(t, err)
	require.False(t, created)
}

func TestMarkConflict(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO marks`).
		WithArgs("vote", "dislike", int64(1), int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}))
	mock.ExpectQuery(`SELECT relation FROM marks`).
		WithArgs("vote", int64(1), int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}).AddRow("like"))

	_, err := New(mock).Mark(context.Background(), models.RelationDislike, 1, 7)
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestMarkRetriesWhenHolderVanishes(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO marks`).
		WithArgs("rsvp", "going", int64(3), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}))
	mock.ExpectQuery(`SELECT relation FROM marks`).
		WithArgs("rsvp", int64(3), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}))
	mock.ExpectQuery(`INSERT INTO marks`).
		WithArgs("rsvp", "going", int64(3), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"relation"}).AddRow("going"))

	created, err := New(mock).Mark(context.Background(), models.RelationGoing, 3, 2)
	require.NoError(t, err)
	require.True(t, created)
}

func TestUnmark(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM marks`).
		WithArgs("follow", int64(2), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	removed, err := New(mock).Unmark(context.Background(), models.RelationFollow, 2, 1)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestSummarizeMarks(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT target_id, relation, COUNT\(\*\), BOOL_OR`).
		WithArgs([]string{"like", "dislike"}, []int64{1, 2}, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"target_id", "relation", "count", "bool_or"}).
			AddRow(int64(1), "like", 3, true).
			AddRow(int64(1), "dislike", 1, false))

	sum, err := New(mock).SummarizeMarks(context.Background(),
		[]models.Relation{models.RelationLike, models.RelationDislike}, []int64{1, 2}, 7)
	require.NoError(t, err)
	require.Equal(t, 3, sum[1].Count(models.RelationLike))
	require.True(t, sum[1].Held(models.RelationLike))
	require.Equal(t, 1, sum[1].Count(models.RelationDislike))
	require.Zero(t, sum[2].Count(models.RelationLike))
}

func TestCreateUserDuplicate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("anna", "hash", "", "").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	err := New(mock).CreateUser(context.Background(), &models.User{Username: "anna", Password: "hash"})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestDeleteUserNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, New(mock).DeleteUser(context.Background(), 9), store.ErrNotFound)
}

func TestCreateMessageRequiresMembership(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(4), int64(9), "hi").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}))

	err := New(mock).CreateMessage(context.Background(), &models.Message{ChatID: 4, SenderID: 9, Content: "hi"})
	require.ErrorIs(t, err, store.ErrNotMember)
}

func TestCreateMessage(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(4), int64(1), "hello").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	msg := &models.Message{ChatID: 4, SenderID: 1, Content: "hello"}
	require.NoError(t, New(mock).CreateMessage(context.Background(), msg))
	require.Equal(t, int64(11), msg.ID)
	require.Equal(t, now, msg.CreatedAt)
}

func TestAddChatMemberDuplicate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO chat_members`).
		WithArgs(int64(4), int64(2), "member").
		WillReturnRows(pgxmock.NewRows([]string{"id", "joined_at"}))

	err := New(mock).AddChatMember(context.Background(), &models.ChatMember{ChatID: 4, UserID: 2, Role: "member"})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestCountUnread(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages m`).
		WithArgs(int64(4), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	n, err := New(mock).CountUnread(context.Background(), 4, 2)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMarkReadIdempotent(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO read_receipts`).
		WithArgs(int64(11), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO read_receipts`).
		WithArgs(int64(11), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	s := New(mock)
	created, err := s.MarkRead(context.Background(), 11, 2)
	require.NoError(t, err)
	require.True(t, created)
	created, err = s.MarkRead(context.Background(), 11, 2)
	require.NoError(t, err)
	require.False(t, created)
}

func TestListTopLevelComments(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT id, post_id, parent_id, author_id, content, created_at FROM comments\s+WHERE post_id = \$1 AND parent_id = 0`).
		WithArgs(int64(1), 0, 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "parent_id", "author_id", "content", "created_at"}).
			AddRow(int64(1), int64(1), int64(0), int64(7), "first", now).
			AddRow(int64(3), int64(1), int64(0), int64(8), "second", now))

	list, err := New(mock).ListComments(context.Background(), store.CommentFilter{PostID: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "second", list[1].Content)
}

func TestCountRepliesFillsZeroes(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT parent_id, COUNT\(\*\) FROM comments`).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"parent_id", "count"}).AddRow(int64(1), 2))

	counts, err := New(mock).CountReplies(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, map[int64]int{1: 2, 2: 0}, counts)
}

func TestUpdateOrganizationRejectsCycleUnderLock(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(orgTreeLock).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`WITH RECURSIVE ancestors`).
		WithArgs(int64(1), int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"parent_exists", "cyclic"}).AddRow(true, true))
	mock.ExpectRollback()

	parent := int64(3)
	_, err := New(mock).UpdateOrganization(context.Background(), 1, store.OrganizationPatch{ParentID: &parent})
	require.ErrorIs(t, err, store.ErrCycle)
}

func TestUpdateOrganizationUnknownParent(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(orgTreeLock).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`WITH RECURSIVE ancestors`).
		WithArgs(int64(1), int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"parent_exists", "cyclic"}).AddRow(false, false))
	mock.ExpectRollback()

	parent := int64(42)
	_, err := New(mock).UpdateOrganization(context.Background(), 1, store.OrganizationPatch{ParentID: &parent})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateOrganizationReparentCommits(t *testing.T) {
	now := time.Now()
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(orgTreeLock).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`WITH RECURSIVE ancestors`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"parent_exists", "cyclic"}).AddRow(true, false))
	mock.ExpectQuery(`UPDATE organizations\s+SET name = COALESCE\(\$2, name\), parent_id = COALESCE\(\$3, parent_id\)`).
		WithArgs(int64(3), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "parent_id", "created_at", "updated_at"}).
			AddRow(int64(3), "Youth", int64(1), now, now))
	mock.ExpectCommit()

	parent := int64(1)
	o, err := New(mock).UpdateOrganization(context.Background(), 3, store.OrganizationPatch{ParentID: &parent})
	require.NoError(t, err)
	require.Equal(t, int64(1), o.ParentID)
	require.Equal(t, "Youth", o.Name)
}

func TestRenameOrganizationSkipsTreeLock(t *testing.T) {
	now := time.Now()
	mock := newMock(t)
	mock.ExpectQuery(`UPDATE organizations`).
		WithArgs(int64(3), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "parent_id", "created_at", "updated_at"}).
			AddRow(int64(3), "Young Adults", int64(1), now, now))

	name := "Young Adults"
	o, err := New(mock).UpdateOrganization(context.Background(), 3, store.OrganizationPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Young Adults", o.Name)
	require.Equal(t, int64(1), o.ParentID)
}
