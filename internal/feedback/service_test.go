package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store/memory"
	"github.com/onechurch/backend/pkg/queue"
	"github.com/onechurch/backend/pkg/result"
)

type brokenQueue struct{}

func (brokenQueue) EnqueueFeedback(context.Context, queue.FeedbackPayload) (string, error) {
	return "", errors.New("redis down")
}

func newUser(t *testing.T, st *memory.Store) int64 {
	t.Helper()
	u := &models.User{Username: "ruth"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u.ID
}

func TestSubmitWritesDirectlyWithoutQueue(t *testing.T) {
	st := memory.New()
	id := newUser(t, st)
	svc := NewService(st, nil, nil)

	r := svc.Submit(context.Background(), id, "  more hymns please ")
	require.True(t, r.Success)
	require.False(t, r.Data.Queued)
	stored := st.Feedback()
	require.Len(t, stored, 1)
	require.Equal(t, "more hymns please", stored[0].Content)
	require.Equal(t, id, stored[0].UserID)
}

func TestSubmitEnqueues(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := memory.New()
	id := newUser(t, st)
	svc := NewService(st, queue.NewQueue(rdb, nil), nil)

	r := svc.Submit(context.Background(), id, "great app")
	require.True(t, r.Success)
	require.True(t, r.Data.Queued)
	require.NotEmpty(t, r.Data.JobID)
	require.Empty(t, st.Feedback())

	list, err := mr.List(queue.QueueFeedback)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSubmitFallsBackWhenQueueFails(t *testing.T) {
	st := memory.New()
	id := newUser(t, st)
	r := NewService(st, brokenQueue{}, nil).Submit(context.Background(), id, "hello")
	require.True(t, r.Success)
	require.False(t, r.Data.Queued)
	require.Len(t, st.Feedback(), 1)
}

func TestSubmitValidation(t *testing.T) {
	st := memory.New()
	id := newUser(t, st)
	svc := NewService(st, nil, nil)
	ctx := context.Background()

	require.Equal(t, result.KindValidation, svc.Submit(ctx, id, " ").Kind)
	require.Equal(t, result.KindValidation, svc.Submit(ctx, id, strings.Repeat("a", MaxLength+1)).Kind)
	require.Equal(t, result.KindNotFound, svc.Submit(ctx, 999, "hi").Kind)
	require.Empty(t, st.Feedback())
}
