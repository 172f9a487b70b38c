package messaging

import (
	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// DefaultPageSize is the message window served when no limit is given.
const DefaultPageSize = 50

// Handler handles chat HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a messaging handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateChatRequest is the body for POST /chats.
type CreateChatRequest struct {
	Members []int64 `json:"members" binding:"required"`
}

// MemberRequest is the body for POST /chats/:chat_id/members.
type MemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// SendRequest is the body for POST /chats/:chat_id/messages.
type SendRequest struct {
	SenderID int64  `json:"sender_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// ReactRequest is the body for POST .../reactions.
type ReactRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Reaction string `json:"reaction" binding:"required"`
}

// ListChats handles GET /users/:user_id/chats.
func (h *Handler) ListChats(c *gin.Context) {
	userID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.ListChats(c.Request.Context(), userID))
}

// CreateChat handles POST /chats.
func (h *Handler) CreateChat(c *gin.Context) {
	var body CreateChatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "members required")
		return
	}
	response.FromResult(c, h.svc.CreateChat(c.Request.Context(), body.Members))
}

// CreateGroupChat handles POST /chats/group.
func (h *Handler) CreateGroupChat(c *gin.Context) {
	var body GroupChatInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "members and name required")
		return
	}
	response.FromResult(c, h.svc.CreateGroupChat(c.Request.Context(), body))
}

func (h *Handler) DeleteChat(c *gin.Context) {
	chatID, ok := response.IDParam(c, "chat_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.DeleteChat(c.Request.Context(), chatID))
}

// AddMember handles POST /chats/:chat_id/members.
func (h *Handler) AddMember(c *gin.Context) {
	chatID, ok := response.IDParam(c, "chat_id")
	if !ok {
		return
	}
	var body MemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "user_id required")
		return
	}
	response.FromResult(c, h.svc.AddMember(c.Request.Context(), chatID, body.UserID))
}

// RemoveMember handles DELETE /chats/:chat_id/members/:user_id.
func (h *Handler) RemoveMember(c *gin.Context) {
	chatID, ok := response.IDParam(c, "chat_id")
	if !ok {
		return
	}
	userID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.RemoveMember(c.Request.Context(), chatID, userID))
}

// Messages handles GET /chats/:chat_id/messages?offset=&limit=.
func (h *Handler) Messages(c *gin.Context) {
	chatID, ok := response.IDParam(c, "chat_id")
	if !ok {
		return
	}
	offset, limit, ok := response.Page(c, DefaultPageSize)
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Messages(c.Request.Context(), chatID, offset, limit))
}

// Send handles POST /chats/:chat_id/messages.
func (h *Handler) Send(c *gin.Context) {
	chatID, ok := response.IDParam(c, "chat_id")
	if !ok {
		return
	}
	var body SendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "sender_id and content required")
		return
	}
	response.FromResult(c, h.svc.Send(c.Request.Context(), chatID, body.SenderID, body.Content))
}

// DeleteMessage handles DELETE /chats/:chat_id/messages/:message_id.
func (h *Handler) DeleteMessage(c *gin.Context) {
	chatID, msgID, ok := chatAndMessage(c)
	if !ok {
		return
	}
	response.FromResult(c, h.svc.DeleteMessage(c.Request.Context(), chatID, msgID))
}

// MarkRead handles POST /chats/:chat_id/messages/:message_id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	chatID, msgID, ok := chatAndMessage(c)
	if !ok {
		return
	}
	var body MemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "user_id required")
		return
	}
	response.FromResult(c, h.svc.MarkRead(c.Request.Context(), chatID, msgID, body.UserID))
}

// React handles POST /chats/:chat_id/messages/:message_id/reactions.
func (h *Handler) React(c *gin.Context) {
	chatID, msgID, ok := chatAndMessage(c)
	if !ok {
		return
	}
	var body ReactRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "user_id and reaction required")
		return
	}
	response.FromResult(c, h.svc.React(c.Request.Context(), chatID, msgID, body.UserID, body.Reaction))
}

// Unreact handles DELETE /chats/:chat_id/messages/:message_id/reactions/:reaction_id
// with the reacting user in the body.
func (h *Handler) Unreact(c *gin.Context) {
	chatID, msgID, ok := chatAndMessage(c)
	if !ok {
		return
	}
	reactionID, ok := response.IDParam(c, "reaction_id")
	if !ok {
		return
	}
	var body MemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "user_id required")
		return
	}
	response.FromResult(c, h.svc.Unreact(c.Request.Context(), chatID, msgID, reactionID, body.UserID))
}

func chatAndMessage(c *gin.Context) (int64, int64, bool) {
	chatID, ok := response.IDParam(c, "chat_id")
	if !ok {
		return 0, 0, false
	}
	msgID, ok := response.IDParam(c, "message_id")
	if !ok {
		return 0, 0, false
	}
	return chatID, msgID, true
}
