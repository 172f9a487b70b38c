package comments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onechurch/backend/internal/accounts"
	"github.com/onechurch/backend/internal/fanout"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store/memory"
	"github.com/onechurch/backend/pkg/result"
)

type fixture struct {
	svc   *Service
	hub   *fanout.Hub
	store *memory.Store
	ann   *models.User
	ben   *models.User
	post  *models.Post
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	hub := fanout.NewHub(nil)
	f := fixture{
		svc:   NewService(st, accounts.NewService(st, nil), hub, nil),
		hub:   hub,
		store: st,
		ann:   &models.User{Username: "ann", PfpURL: "ann.png"},
		ben:   &models.User{Username: "ben"},
	}
	require.NoError(t, st.CreateUser(ctx, f.ann))
	require.NoError(t, st.CreateUser(ctx, f.ben))
	f.post = &models.Post{AuthorID: f.ann.ID, Caption: "easter"}
	require.NoError(t, st.CreatePost(ctx, f.post))
	return f
}

func receive(t *testing.T, s *fanout.Session) map[string]any {
	t.Helper()
	select {
	case raw := <-s.Messages():
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("nothing received")
		return nil
	}
}

func TestCreateCommentPublishesToSubscribers(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	sub, err := f.hub.Join(fanout.CommentsGroup(f.post.ID))
	require.NoError(t, err)
	other, err := f.hub.Join(fanout.CommentsGroup(f.post.ID + 100))
	require.NoError(t, err)
	receive(t, sub)
	receive(t, other)

	r := f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "hi"})
	require.True(t, r.Success)
	require.Equal(t, "ann", r.Data.AuthorName)
	require.Equal(t, "ann.png", r.Data.AuthorPfp)

	ev := receive(t, sub)
	require.Equal(t, fanout.TypeNewComment, ev["type"])
	require.Equal(t, "ann", ev["user"])
	comment := ev["comment"].(map[string]any)
	require.Equal(t, "hi", comment["content"])
	require.EqualValues(t, r.Data.ID, comment["id"])
	require.Len(t, sub.Messages(), 0)
	require.Len(t, other.Messages(), 0)
}

func TestReplyPublishesToParentGroup(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	top := f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "top"}).Data

	topSub, _ := f.hub.Join(fanout.CommentsGroup(f.post.ID))
	replySub, _ := f.hub.Join(fanout.RepliesGroup(top.ID))
	receive(t, topSub)
	receive(t, replySub)

	r := f.svc.Reply(ctx, top.ID, f.ben.ID, "re")
	require.True(t, r.Success)
	require.Equal(t, top.ID, r.Data.ParentID)
	require.Equal(t, f.post.ID, r.Data.PostID)

	ev := receive(t, replySub)
	require.Equal(t, fanout.TypeNewReply, ev["type"])
	require.EqualValues(t, top.ID, ev["parent_id"])
	require.Len(t, topSub.Messages(), 0)
}

func TestReplyCountCountsDirectChildrenOnly(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	top := f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "top"}).Data
	r1 := f.svc.Reply(ctx, top.ID, f.ben.ID, "one").Data
	f.svc.Reply(ctx, top.ID, f.ben.ID, "two")
	f.svc.Reply(ctx, r1.ID, f.ann.ID, "nested")
	f.svc.Reply(ctx, r1.ID, f.ann.ID, "nested again")

	got := f.svc.Get(ctx, top.ID)
	require.True(t, got.Success)
	require.Equal(t, 2, got.Data.ReplyCount)

	replies := f.svc.Replies(ctx, f.ann.ID, top.ID, 0, 10)
	require.True(t, replies.Success)
	require.Len(t, replies.Data, 2)
	require.Equal(t, 2, replies.Data[0].ReplyCount)
	require.Zero(t, replies.Data[1].ReplyCount)

	list := f.svc.List(ctx, f.ann.ID, f.post.ID, 0, 10)
	require.Len(t, list.Data, 1, "replies never appear as top-level comments")
}

func TestListIsCreationOrderedAndPaged(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	for _, text := range []string{"a", "b", "c", "d"} {
		require.True(t, f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ben.ID, Content: text}).Success)
	}

	first := f.svc.List(ctx, f.ann.ID, f.post.ID, 0, 2).Data
	second := f.svc.List(ctx, f.ann.ID, f.post.ID, 2, 2).Data
	all := f.svc.List(ctx, f.ann.ID, f.post.ID, 0, 4).Data
	require.Equal(t, all, append(first, second...))
	require.Equal(t, "a", all[0].Content)
	require.Equal(t, "d", all[3].Content)

	require.Equal(t, result.KindValidation, f.svc.List(ctx, f.ann.ID, f.post.ID, -1, 2).Kind)
}

func TestVotesComeFromPost(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, err := f.store.Mark(ctx, models.RelationLike, f.post.ID, f.ben.ID)
	require.NoError(t, err)
	_, err = f.store.Mark(ctx, models.RelationDislike, f.post.ID, f.ann.ID)
	require.NoError(t, err)
	f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "x"})

	v := f.svc.List(ctx, f.ben.ID, f.post.ID, 0, 1).Data[0]
	require.Equal(t, 1, v.LikeCount)
	require.Equal(t, 1, v.DislikeCount)
	require.True(t, v.UserLiked)
	require.False(t, v.UserDisliked)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	other := &models.Post{AuthorID: f.ann.ID, Caption: "other"}
	require.NoError(t, f.store.CreatePost(ctx, other))
	top := f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "top"}).Data

	cases := []struct {
		name string
		in   CreateInput
		kind result.Kind
	}{
		{"empty content", CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "  "}, result.KindValidation},
		{"unknown post", CreateInput{PostID: 999, AuthorID: f.ann.ID, Content: "x"}, result.KindNotFound},
		{"unknown author", CreateInput{PostID: f.post.ID, AuthorID: 999, Content: "x"}, result.KindNotFound},
		{"unknown parent", CreateInput{PostID: f.post.ID, ParentID: 999, AuthorID: f.ann.ID, Content: "x"}, result.KindNotFound},
		{"parent on other post", CreateInput{PostID: other.ID, ParentID: top.ID, AuthorID: f.ann.ID, Content: "x"}, result.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := f.svc.Create(ctx, tc.in)
			require.False(t, r.Success)
			require.Equal(t, tc.kind, r.Kind)
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ann.ID, Content: "draft"}).Data

	upd := f.svc.Update(ctx, c.ID, "final")
	require.True(t, upd.Success)
	require.Equal(t, "final", upd.Data.Content)

	require.True(t, f.svc.Delete(ctx, c.ID).Success)
	require.Equal(t, result.KindNotFound, f.svc.Delete(ctx, c.ID).Kind)
	require.Equal(t, result.KindNotFound, f.svc.Update(ctx, c.ID, "again").Kind)
}

func TestUnknownAuthorFallsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.svc.Create(ctx, CreateInput{PostID: f.post.ID, AuthorID: f.ben.ID, Content: "bye"}).Data
	require.NoError(t, f.store.DeleteUser(ctx, f.ben.ID))

	require.Equal(t, models.UnknownAuthorName, f.svc.Get(ctx, c.ID).Data.AuthorName)
}
