package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, s *Session) map[string]any {
	t.Helper()
	select {
	case raw, ok := <-s.Messages():
		require.True(t, ok, "session closed")
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no payload received")
		return nil
	}
}

func requireEmpty(t *testing.T, s *Session) {
	t.Helper()
	select {
	case raw := <-s.Messages():
		t.Fatalf("unexpected payload %s", raw)
	default:
	}
}

func TestJoinSendsHandshakeFirst(t *testing.T) {
	hub := NewHub(nil)
	s, err := hub.Join(CommentsGroup(42))
	require.NoError(t, err)

	hello := next(t, s)
	require.Equal(t, TypeConnectionEstablished, hello["type"])
	require.Equal(t, "comments:42", hello["group"])
}

func TestPublishIsScopedToGroup(t *testing.T) {
	hub := NewHub(nil)
	a, _ := hub.Join(CommentsGroup(42))
	b, _ := hub.Join(CommentsGroup(43))
	r, _ := hub.Join(RepliesGroup(42))
	for _, s := range []*Session{a, b, r} {
		next(t, s)
	}

	hub.Publish(CommentsGroup(43), NewCommentEvent(map[string]any{"id": 1}, "ann"))

	requireEmpty(t, a)
	requireEmpty(t, r)
	got := next(t, b)
	require.Equal(t, TypeNewComment, got["type"])
	require.Equal(t, "ann", got["user"])
}

func TestPublishPreservesOrder(t *testing.T) {
	hub := NewHub(nil)
	s, _ := hub.Join(ChatGroup(1))
	next(t, s)

	for i := 0; i < 10; i++ {
		hub.Publish(ChatGroup(1), NewMessageEvent(map[string]int{"id": i}))
	}
	for i := 0; i < 10; i++ {
		msg := next(t, s)["message"].(map[string]any)
		require.EqualValues(t, i, msg["id"])
	}
}

func TestNoReplayForLateJoiners(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(ChatGroup(9), NewMessageEvent("early"))

	s, _ := hub.Join(ChatGroup(9))
	next(t, s)
	requireEmpty(t, s)
}

func TestLeaveIsIdempotentAndIsolated(t *testing.T) {
	hub := NewHub(nil)
	a, _ := hub.Join(ChatGroup(5))
	b, _ := hub.Join(ChatGroup(5))
	next(t, a)
	next(t, b)

	hub.Leave(a)
	hub.Leave(a)
	_, open := <-a.Messages()
	require.False(t, open)
	require.Equal(t, 1, hub.Subscribers(ChatGroup(5)))

	hub.Publish(ChatGroup(5), NewMessageEvent("after"))
	require.Equal(t, TypeNewMessage, next(t, b)["type"])

	hub.Leave(b)
	require.Zero(t, hub.Subscribers(ChatGroup(5)))
	hub.Publish(ChatGroup(5), NewMessageEvent("nobody"))
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(nil, WithSendBuffer(2))
	slow, _ := hub.Join(CommentsGroup(1))
	fast, _ := hub.Join(CommentsGroup(1))
	next(t, fast)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			hub.Publish(CommentsGroup(1), NewCommentEvent(i, "u"))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full session queue")
	}

	// slow still holds the handshake plus one payload
	require.Len(t, slow.Messages(), 2)
	require.Equal(t, TypeNewComment, next(t, fast)["type"])
}

func TestRedisBridgeDeliversOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub(nil, WithBridge(NewRedisBridge(rdb, nil)))
	s, err := hub.Join(RepliesGroup(3))
	require.NoError(t, err)
	next(t, s)

	hub.Publish(RepliesGroup(3), NewReplyEvent(map[string]any{"id": 8}, "ann", 3))
	got := next(t, s)
	require.Equal(t, TypeNewReply, got["type"])
	require.EqualValues(t, 3, got["parent_id"])
	requireEmpty(t, s)

	hub.Leave(s)
	require.Zero(t, hub.Subscribers(RepliesGroup(3)))
}

// stubBridge records every subscription so tests can drive deliveries by hand.
type stubBridge struct {
	mu       sync.Mutex
	block    map[string]chan struct{}
	fail     map[string]error
	delivers map[string][]func([]byte)
}

func newStubBridge() *stubBridge {
	return &stubBridge{
		block:    map[string]chan struct{}{},
		fail:     map[string]error{},
		delivers: map[string][]func([]byte){},
	}
}

func (b *stubBridge) Publish(context.Context, string, []byte) error { return nil }

func (b *stubBridge) Subscribe(group string, deliver func([]byte)) (func(), error) {
	b.mu.Lock()
	gate := b.block[group]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fail[group]; err != nil {
		delete(b.fail, group)
		return nil, err
	}
	b.delivers[group] = append(b.delivers[group], deliver)
	return func() {}, nil
}

func (b *stubBridge) deliverFunc(group string, generation int) func([]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delivers[group][generation]
}

func TestSlowBridgeSubscribeDoesNotStallOtherGroups(t *testing.T) {
	bridge := newStubBridge()
	gate := make(chan struct{})
	bridge.block[ChatGroup(1)] = gate
	hub := NewHub(nil, WithBridge(bridge))

	slow := make(chan *Session, 1)
	go func() {
		s, _ := hub.Join(ChatGroup(1))
		slow <- s
	}()

	joined := make(chan struct{})
	go func() {
		defer close(joined)
		s, err := hub.Join(ChatGroup(2))
		if err == nil {
			hub.Leave(s)
		}
		hub.Subscribers(ChatGroup(3))
	}()
	select {
	case <-joined:
	case <-time.After(2 * time.Second):
		t.Fatal("join on another group waited for a pending subscribe")
	}

	close(gate)
	select {
	case s := <-slow:
		require.NotNil(t, s)
		require.Equal(t, 1, hub.Subscribers(ChatGroup(1)))
	case <-time.After(2 * time.Second):
		t.Fatal("pending join never completed")
	}
}

func TestStaleSubscriptionCannotReachNewGeneration(t *testing.T) {
	bridge := newStubBridge()
	hub := NewHub(nil, WithBridge(bridge))

	first, err := hub.Join(ChatGroup(4))
	require.NoError(t, err)
	hub.Leave(first)

	second, err := hub.Join(ChatGroup(4))
	require.NoError(t, err)
	next(t, second)

	payload, _ := json.Marshal(NewMessageEvent("stale"))
	bridge.deliverFunc(ChatGroup(4), 0)(payload)
	requireEmpty(t, second)

	payload, _ = json.Marshal(NewMessageEvent("fresh"))
	bridge.deliverFunc(ChatGroup(4), 1)(payload)
	require.Equal(t, "fresh", next(t, second)["message"])
}

func TestFailedSubscribeIsRetriedByNextJoin(t *testing.T) {
	bridge := newStubBridge()
	bridge.fail[ChatGroup(6)] = errors.New("redis down")
	hub := NewHub(nil, WithBridge(bridge))

	_, err := hub.Join(ChatGroup(6))
	require.Error(t, err)
	require.Zero(t, hub.Subscribers(ChatGroup(6)))

	s, err := hub.Join(ChatGroup(6))
	require.NoError(t, err)
	require.Equal(t, TypeConnectionEstablished, next(t, s)["type"])
}
