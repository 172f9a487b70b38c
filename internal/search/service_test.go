package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store/memory"
	"github.com/onechurch/backend/pkg/result"
)

func seed(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.CreateUser(ctx, &models.User{Username: "GraceHopper"}))
	require.NoError(t, st.CreateUser(ctx, &models.User{Username: "ben"}))
	root := &models.Organization{Name: "Grace Chapel"}
	require.NoError(t, st.CreateOrganization(ctx, root))
	require.NoError(t, st.CreateOrganization(ctx, &models.Organization{Name: "Grace Youth", ParentID: root.ID}))
	require.NoError(t, st.CreatePost(ctx, &models.Post{AuthorID: root.ID, Caption: "amazing grace"}))
	now := time.Now()
	require.NoError(t, st.CreateEvent(ctx, &models.Event{AuthorID: root.ID, Title: "Grace night", StartTime: now, EndTime: now}))
	return NewService(st, nil)
}

func TestSearchAllKinds(t *testing.T) {
	svc := seed(t)
	r := svc.Search(context.Background(), "GRACE", All)
	require.True(t, r.Success)
	require.Len(t, r.Data.Users, 1)
	require.Equal(t, "GraceHopper", r.Data.Users[0].Username)
	// child organizations are not searched
	require.Len(t, r.Data.Organizations, 1)
	require.Equal(t, "Grace Chapel", r.Data.Organizations[0].Name)
	require.Len(t, r.Data.Posts, 1)
	require.Len(t, r.Data.Events, 1)
}

func TestSearchIncludeFlags(t *testing.T) {
	svc := seed(t)
	r := svc.Search(context.Background(), "grace", Options{Events: true})
	require.True(t, r.Success)
	require.Nil(t, r.Data.Users)
	require.Nil(t, r.Data.Organizations)
	require.Nil(t, r.Data.Posts)
	require.Len(t, r.Data.Events, 1)
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := seed(t)
	require.Equal(t, result.KindValidation, svc.Search(context.Background(), "  ", All).Kind)
	require.Empty(t, svc.Search(context.Background(), "nothing matches", All).Data.Users)
}
