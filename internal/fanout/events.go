package fanout

import (
	"fmt"
	"time"
)

// Event types sent to subscribers.
const (
	TypeConnectionEstablished = "connection_established"
	TypeNewComment            = "new_comment"
	TypeNewReply              = "new_reply"
	TypeNewMessage            = "new_message"
)

// CommentsGroup is joined by viewers of a post's top-level comments.
func CommentsGroup(postID int64) string { return fmt.Sprintf("comments:%d", postID) }

// RepliesGroup is joined by viewers of a comment's replies.
func RepliesGroup(commentID int64) string { return fmt.Sprintf("replies:%d", commentID) }

// ChatGroup is joined by participants of a chat.
func ChatGroup(chatID int64) string { return fmt.Sprintf("chat:%d", chatID) }

// Handshake is the first payload every session receives.
type Handshake struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Group   string `json:"group"`
}

// CommentEvent announces a new top-level comment.
type CommentEvent struct {
	Type      string    `json:"type"`
	Comment   any       `json:"comment"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCommentEvent wraps an enriched comment for the comments group.
func NewCommentEvent(comment any, user string) CommentEvent {
	return CommentEvent{Type: TypeNewComment, Comment: comment, User: user, Timestamp: time.Now().UTC()}
}

// ReplyEvent announces a new reply.
type ReplyEvent struct {
	Type      string    `json:"type"`
	Reply     any       `json:"reply"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	ParentID  int64     `json:"parent_id"`
}

// NewReplyEvent wraps an enriched reply for the replies group of parentID.
func NewReplyEvent(reply any, user string, parentID int64) ReplyEvent {
	return ReplyEvent{Type: TypeNewReply, Reply: reply, User: user, Timestamp: time.Now().UTC(), ParentID: parentID}
}

// MessageEvent announces a new chat message.
type MessageEvent struct {
	Type    string `json:"type"`
	Message any    `json:"message"`
}

// NewMessageEvent wraps an enriched chat message.
func NewMessageEvent(message any) MessageEvent {
	return MessageEvent{Type: TypeNewMessage, Message: message}
}
