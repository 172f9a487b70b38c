package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onechurch/backend/internal/accounts"
	"github.com/onechurch/backend/internal/comments"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store/memory"
	"github.com/onechurch/backend/pkg/result"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	comments *comments.Service
	user     *models.User
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	st := memory.New(memory.WithClock(clk.now))
	acc := accounts.NewService(st, nil)
	cs := comments.NewService(st, acc, nil, nil)
	f := fixture{svc: NewService(st, acc, cs, nil, opts...), store: st, comments: cs}
	f.user = &models.User{Username: "mia", PfpURL: "mia.png"}
	require.NoError(t, st.CreateUser(context.Background(), f.user))
	return f
}

func (f fixture) post(t *testing.T, caption string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: f.user.ID, Caption: caption}
	require.NoError(t, f.store.CreatePost(context.Background(), p))
	return p
}

func (f fixture) event(t *testing.T, title string) *models.Event {
	t.Helper()
	now := time.Now()
	e := &models.Event{AuthorID: f.user.ID, Title: title, StartTime: now, EndTime: now.Add(time.Hour), Location: "hall"}
	require.NoError(t, f.store.CreateEvent(context.Background(), e))
	return e
}

func TestFeedNewestFirstAcrossKinds(t *testing.T) {
	f := setup(t)
	p1 := f.post(t, "first")
	e := f.event(t, "vigil")
	p2 := f.post(t, "last")

	r := f.svc.Get(context.Background(), f.user.ID, 0, 10)
	require.True(t, r.Success)
	require.Len(t, r.Data, 3)
	require.Equal(t, []int64{p2.ID, e.ID, p1.ID}, []int64{r.Data[0].ID, r.Data[1].ID, r.Data[2].ID})
	require.Equal(t, models.KindEvent, r.Data[1].Type)
	require.Equal(t, "mia", r.Data[0].AuthorName)
	require.Equal(t, "mia.png", r.Data[0].AuthorPfp)
}

func TestFeedPaginationIsContiguous(t *testing.T) {
	f := setup(t)
	for i := 0; i < 4; i++ {
		f.post(t, "p")
		f.event(t, "e")
	}
	ctx := context.Background()
	all := f.svc.Get(ctx, f.user.ID, 0, 8).Data
	a := f.svc.Get(ctx, f.user.ID, 0, 3).Data
	b := f.svc.Get(ctx, f.user.ID, 3, 5).Data
	require.Equal(t, all, append(a, b...))

	tail := f.svc.Get(ctx, f.user.ID, 6, 5)
	require.True(t, tail.Success)
	require.Len(t, tail.Data, 2)
	require.Empty(t, f.svc.Get(ctx, f.user.ID, 20, 5).Data)
}

func TestFeedEnrichment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	other := &models.User{Username: "noah"}
	require.NoError(t, f.store.CreateUser(ctx, other))
	p := f.post(t, "with comments")
	e := f.event(t, "retreat")

	for _, text := range []string{"one", "two", "three"} {
		require.True(t, f.comments.Create(ctx, comments.CreateInput{PostID: p.ID, AuthorID: other.ID, Content: text}).Success)
	}
	_, err := f.store.Mark(ctx, models.RelationLike, p.ID, f.user.ID)
	require.NoError(t, err)
	_, err = f.store.Mark(ctx, models.RelationDislike, p.ID, other.ID)
	require.NoError(t, err)
	_, err = f.store.Mark(ctx, models.RelationGoing, e.ID, f.user.ID)
	require.NoError(t, err)
	_, err = f.store.Mark(ctx, models.RelationInterested, e.ID, other.ID)
	require.NoError(t, err)

	items := f.svc.Get(ctx, f.user.ID, 0, 10).Data
	require.Len(t, items, 2)
	ev, post := items[0], items[1]

	require.Equal(t, 1, post.LikeCount)
	require.Equal(t, 1, post.DislikeCount)
	require.True(t, post.UserLiked)
	require.False(t, post.UserDisliked)
	require.Equal(t, 3, post.CommentCount)
	require.NotNil(t, post.PostStats)
	require.Len(t, post.Comments, PreviewSize)
	require.Equal(t, "one", post.Comments[0].Content)
	require.Nil(t, post.EventStats)

	require.NotNil(t, ev.EventStats)
	require.Nil(t, ev.PostStats)
	require.Equal(t, 1, ev.GoingCount)
	require.Equal(t, 1, ev.InterestedCount)
	require.True(t, ev.UserGoing)
	require.False(t, ev.UserInterested)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"going_count":1`)
	require.NotContains(t, string(raw), `"comments"`)
}

func TestFeedWindowIsExact(t *testing.T) {
	ctx := context.Background()
	f := setup(t, WithLimits(2, 3))
	for i := 0; i < 5; i++ {
		f.post(t, "p")
	}
	// the service window is exact; defaults and caps belong to the handler
	require.Empty(t, f.svc.Get(ctx, f.user.ID, 0, 0).Data)
	require.Len(t, f.svc.Get(ctx, f.user.ID, 0, 50).Data, 5)
	require.Equal(t, 5, f.svc.Total(ctx).Data)
	require.Equal(t, result.KindValidation, f.svc.Get(ctx, f.user.ID, -1, 2).Kind)
	require.Equal(t, result.KindNotFound, f.svc.Get(ctx, 999, 0, 2).Kind)
}
