package relations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onechurch/backend/internal/accounts"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store/memory"
	"github.com/onechurch/backend/pkg/result"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	user  *models.User
	post  *models.Post
	event *models.Event
	org   *models.Organization
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	f := fixture{svc: NewService(st, accounts.NewService(st, nil), nil), store: st}
	f.user = &models.User{Username: "ruth"}
	require.NoError(t, st.CreateUser(ctx, f.user))
	f.org = &models.Organization{Name: "Grace Chapel"}
	require.NoError(t, st.CreateOrganization(ctx, f.org))
	f.post = &models.Post{AuthorID: f.user.ID, Caption: "sunday"}
	require.NoError(t, st.CreatePost(ctx, f.post))
	now := time.Now()
	f.event = &models.Event{AuthorID: f.org.ID, Title: "Picnic", StartTime: now, EndTime: now.Add(time.Hour)}
	require.NoError(t, st.CreateEvent(ctx, f.event))
	return f
}

func TestLikeIdempotentAndExclusive(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	first := f.svc.Like(ctx, f.post.ID, f.user.ID)
	require.True(t, first.Success)
	require.Equal(t, result.KindOK, first.Kind)

	again := f.svc.Like(ctx, f.post.ID, f.user.ID)
	require.True(t, again.Success)
	require.Equal(t, result.KindAlreadySatisfied, again.Kind)

	dis := f.svc.Dislike(ctx, f.post.ID, f.user.ID)
	require.False(t, dis.Success)
	require.Equal(t, result.KindConflict, dis.Kind)

	likers, err := f.store.ListActors(ctx, models.RelationLike, f.post.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{f.user.ID}, likers)
	dislikers, err := f.store.ListActors(ctx, models.RelationDislike, f.post.ID)
	require.NoError(t, err)
	require.Empty(t, dislikers)

	require.True(t, f.svc.RemoveLike(ctx, f.post.ID, f.user.ID).Success)
	require.True(t, f.svc.Dislike(ctx, f.post.ID, f.user.ID).Success)
}

func TestRemoveAbsentMarkSucceeds(t *testing.T) {
	f := setup(t)
	r := f.svc.RemoveDislike(context.Background(), f.post.ID, f.user.ID)
	require.True(t, r.Success)
	require.Equal(t, result.KindAlreadySatisfied, r.Kind)
}

func TestGoingInterestedExclusive(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.True(t, f.svc.Interested(ctx, f.event.ID, f.user.ID).Success)
	require.Equal(t, result.KindConflict, f.svc.Going(ctx, f.event.ID, f.user.ID).Kind)
	require.True(t, f.svc.RemoveInterested(ctx, f.event.ID, f.user.ID).Success)
	require.True(t, f.svc.Going(ctx, f.event.ID, f.user.ID).Success)

	// posts cannot be RSVPed
	require.Equal(t, result.KindNotFound, f.svc.Going(ctx, f.post.ID, f.user.ID).Kind)
}

func TestEventsCanBeLiked(t *testing.T) {
	f := setup(t)
	require.True(t, f.svc.Like(context.Background(), f.event.ID, f.user.ID).Success)
}

func TestMarkUnknownTargetOrActor(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.Equal(t, result.KindNotFound, f.svc.Like(ctx, 999, f.user.ID).Kind)
	require.Equal(t, result.KindNotFound, f.svc.Like(ctx, f.post.ID, 999).Kind)
	require.Equal(t, result.KindNotFound, f.svc.Follow(ctx, f.user.ID, 999).Kind)
}

func TestConcurrentVotesKeepOneRow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		kind = map[result.Kind]int{}
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var r result.Result[result.None]
			if i%2 == 0 {
				r = f.svc.Like(ctx, f.post.ID, f.user.ID)
			} else {
				r = f.svc.Dislike(ctx, f.post.ID, f.user.ID)
			}
			mu.Lock()
			kind[r.Kind]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, kind[result.KindOK])
	require.Equal(t, 15, kind[result.KindAlreadySatisfied])
	require.Equal(t, 16, kind[result.KindConflict])
}

func TestFollowLists(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.True(t, f.svc.Follow(ctx, f.user.ID, f.org.ID).Success)
	require.Equal(t, result.KindAlreadySatisfied, f.svc.Follow(ctx, f.user.ID, f.org.ID).Kind)

	followers := f.svc.Followers(ctx, f.org.ID)
	require.True(t, followers.Success)
	require.Equal(t, []models.Author{{ID: f.user.ID, Name: "ruth"}}, followers.Data)

	following := f.svc.Following(ctx, f.user.ID)
	require.Equal(t, "Grace Chapel", following.Data[0].Name)

	require.True(t, f.svc.Unfollow(ctx, f.user.ID, f.org.ID).Success)
	require.Equal(t, result.KindAlreadySatisfied, f.svc.Unfollow(ctx, f.user.ID, f.org.ID).Kind)
	require.Empty(t, f.svc.Followers(ctx, f.org.ID).Data)
}

func TestOrganizationRoles(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.True(t, f.svc.AddRole(ctx, models.RelationAdmin, f.org.ID, f.user.ID).Success)
	require.True(t, f.svc.AddRole(ctx, models.RelationCongregant, f.org.ID, f.user.ID).Success)

	admins := f.svc.RoleHolders(ctx, f.org.ID, models.RelationAdmin)
	require.True(t, admins.Success)
	require.Len(t, admins.Data, 1)
	require.Equal(t, "ruth", admins.Data[0].Username)

	orgs := f.svc.OrganizationsFor(ctx, f.user.ID, models.RelationCongregant)
	require.Len(t, orgs.Data, 1)
	require.Empty(t, f.svc.OrganizationsFor(ctx, f.user.ID, models.RelationMember).Data)

	require.Equal(t, result.KindValidation, f.svc.AddRole(ctx, models.RelationLike, f.org.ID, f.user.ID).Kind)
	require.Equal(t, result.KindNotFound, f.svc.AddRole(ctx, models.RelationMember, f.post.ID, f.user.ID).Kind)
}
