// Package server wires the HTTP and websocket surface onto the engines.
package server

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/onechurch/backend/config"
	"github.com/onechurch/backend/internal/accounts"
	"github.com/onechurch/backend/internal/comments"
	"github.com/onechurch/backend/internal/content"
	"github.com/onechurch/backend/internal/fanout"
	"github.com/onechurch/backend/internal/feed"
	"github.com/onechurch/backend/internal/feedback"
	"github.com/onechurch/backend/internal/messaging"
	"github.com/onechurch/backend/internal/middleware"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/relations"
	"github.com/onechurch/backend/internal/search"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/response"
)

// Deps are the collaborators the router is built from. Queue may be nil.
type Deps struct {
	Store  store.Store
	Hub    *fanout.Hub
	Queue  feedback.Enqueuer
	Config *config.Config
	Logger *zap.Logger
}

// NewRouter builds every service and registers all routes.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := d.Config
	st := d.Store

	accountSvc := accounts.NewService(st, logger)
	contentSvc := content.NewService(st, accountSvc, logger)
	relationSvc := relations.NewService(st, accountSvc, logger)
	commentSvc := comments.NewService(st, accountSvc, d.Hub, logger)
	feedSvc := feed.NewService(st, accountSvc, commentSvc, logger,
		feed.WithLimits(cfg.Feed.DefaultLimit, cfg.Feed.MaxLimit))
	messagingSvc := messaging.NewService(st, accountSvc, d.Hub, logger)
	searchSvc := search.NewService(st, logger)
	feedbackSvc := feedback.NewService(st, d.Queue, logger)

	accountHandler := accounts.NewHandler(accountSvc)
	contentHandler := content.NewHandler(contentSvc)
	relationHandler := relations.NewHandler(relationSvc)
	commentHandler := comments.NewHandler(commentSvc)
	feedHandler := feed.NewHandler(feedSvc)
	messagingHandler := messaging.NewHandler(messagingSvc)
	searchHandler := search.NewHandler(searchSvc)
	feedbackHandler := feedback.NewHandler(feedbackSvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok", "store": cfg.Store.Driver}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/search", searchHandler.Search)

	// Users
	router.POST("/users", accountHandler.CreateUser)
	router.POST("/users/login", accountHandler.Login)
	router.GET("/users/:user_id", accountHandler.GetUser)
	router.PUT("/users/:user_id", accountHandler.UpdateUser)
	router.PUT("/users/:user_id/password", accountHandler.ChangePassword)
	router.DELETE("/users/:user_id", accountHandler.DeleteUser)
	router.GET("/users/:user_id/posts", contentHandler.UserPosts)
	router.GET("/users/:user_id/feed", feedHandler.Get)
	router.GET("/users/:user_id/following", relationHandler.Following)
	router.GET("/users/:user_id/organizations/:role", relationHandler.UserOrganizations)
	router.GET("/users/:user_id/chats", messagingHandler.ListChats)
	router.POST("/users/:user_id/feedback", feedbackHandler.Submit)
	router.GET("/users/:user_id/posts/:post_id/comments", commentHandler.List)
	router.GET("/users/:user_id/comments/:comment_id/replies", commentHandler.Replies)

	// Relationship toggles, actor first
	toggles := []struct {
		path   string
		rel    models.Relation
		target string
	}{
		{"/users/:user_id/likes/:content_id", models.RelationLike, "content_id"},
		{"/users/:user_id/dislikes/:content_id", models.RelationDislike, "content_id"},
		{"/users/:user_id/going/:event_id", models.RelationGoing, "event_id"},
		{"/users/:user_id/interested/:event_id", models.RelationInterested, "event_id"},
		{"/users/:user_id/following/:account_id", models.RelationFollow, "account_id"},
	}
	for _, t := range toggles {
		router.POST(t.path, relationHandler.Toggle(t.rel, t.target, true))
		router.DELETE(t.path, relationHandler.Toggle(t.rel, t.target, false))
	}
	router.GET("/accounts/:account_id/followers", relationHandler.Followers)

	// Organizations
	router.POST("/organizations", accountHandler.CreateOrganization)
	router.GET("/organizations/:org_id", accountHandler.GetOrganization)
	router.PUT("/organizations/:org_id", accountHandler.UpdateOrganization)
	router.DELETE("/organizations/:org_id", accountHandler.DeleteOrganization)
	router.GET("/organizations/:org_id/children", accountHandler.Children)
	router.GET("/organizations/:org_id/children/ids", accountHandler.ChildIDs)
	router.GET("/organizations/:org_id/posts", contentHandler.OrganizationPosts)
	router.GET("/organizations/:org_id/roles/:role", relationHandler.RoleHolders)
	router.POST("/organizations/:org_id/roles/:role/:user_id", relationHandler.AddRole)
	router.DELETE("/organizations/:org_id/roles/:role/:user_id", relationHandler.RemoveRole)

	// Posts and events
	router.POST("/posts", contentHandler.CreatePost)
	router.GET("/posts/:post_id", contentHandler.GetPost)
	router.PUT("/posts/:post_id", contentHandler.UpdatePost)
	router.DELETE("/posts/:post_id", contentHandler.DeletePost)
	router.POST("/posts/:post_id/comments", commentHandler.Create)
	router.POST("/events", contentHandler.CreateEvent)
	router.GET("/events/:event_id", contentHandler.GetEvent)
	router.PUT("/events/:event_id", contentHandler.UpdateEvent)
	router.DELETE("/events/:event_id", contentHandler.DeleteEvent)

	// Comments
	router.GET("/comments/:comment_id", commentHandler.Get)
	router.PUT("/comments/:comment_id", commentHandler.Update)
	router.DELETE("/comments/:comment_id", commentHandler.Delete)
	router.POST("/comments/:comment_id/replies", commentHandler.Reply)

	// Chats
	router.POST("/chats", messagingHandler.CreateChat)
	router.POST("/chats/group", messagingHandler.CreateGroupChat)
	router.DELETE("/chats/:chat_id", messagingHandler.DeleteChat)
	router.POST("/chats/:chat_id/members", messagingHandler.AddMember)
	router.DELETE("/chats/:chat_id/members/:user_id", messagingHandler.RemoveMember)
	router.GET("/chats/:chat_id/messages", messagingHandler.Messages)
	router.POST("/chats/:chat_id/messages", messagingHandler.Send)
	router.DELETE("/chats/:chat_id/messages/:message_id", messagingHandler.DeleteMessage)
	router.POST("/chats/:chat_id/messages/:message_id/read", messagingHandler.MarkRead)
	router.POST("/chats/:chat_id/messages/:message_id/reactions", messagingHandler.React)
	router.DELETE("/chats/:chat_id/messages/:message_id/reactions/:reaction_id", messagingHandler.Unreact)

	// Realtime join points
	conn := fanout.ConnConfig{IdleTimeout: cfg.Fanout.IdleTimeout, PingInterval: cfg.Fanout.PingInterval}
	router.GET("/ws/comments/:post_id", fanout.ServeWs(d.Hub, resolveGroup(st, logger, "post_id", contentExists, fanout.CommentsGroup), conn, logger))
	router.GET("/ws/replies/:comment_id", fanout.ServeWs(d.Hub, resolveGroup(st, logger, "comment_id", commentExists, fanout.RepliesGroup), conn, logger))
	router.GET("/ws/chat/:chat_id", fanout.ServeWs(d.Hub, resolveGroup(st, logger, "chat_id", chatExists, fanout.ChatGroup), conn, logger))

	return router
}

type lookup func(ctx context.Context, st store.Store, id int64) error

func contentExists(ctx context.Context, st store.Store, id int64) error {
	if _, err := st.GetPost(ctx, id); !errors.Is(err, store.ErrNotFound) {
		return err
	}
	_, err := st.GetEvent(ctx, id)
	return err
}

func commentExists(ctx context.Context, st store.Store, id int64) error {
	_, err := st.GetComment(ctx, id)
	return err
}

func chatExists(ctx context.Context, st store.Store, id int64) error {
	_, err := st.GetChat(ctx, id)
	return err
}

// resolveGroup parses the id in param, checks the resource exists and names
// its fanout group.
func resolveGroup(st store.Store, logger *zap.Logger, param string, exists lookup, group func(int64) string) fanout.GroupResolver {
	return func(c *gin.Context) (string, bool) {
		id, ok := response.IDParam(c, param)
		if !ok {
			return "", false
		}
		if err := exists(c.Request.Context(), st, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.NotFound(c, "resource not found")
				return "", false
			}
			logger.Error("resolve fanout group", zap.String("param", param), zap.Error(err))
			response.Internal(c, "internal error")
			return "", false
		}
		return group(id), true
	}
}
