// Package memory is the reference in-memory store. Each table is an id->record
// arena guarded by its own mutex; records are copied on the way in and out.
//
// Multi-table operations take locks in a fixed order:
// chats, members, messages, receipts, reactions.
package memory

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type markKey struct {
	slot     string
	targetID int64
	actorID  int64
}

// Store implements store.Store in process memory.
type Store struct {
	now func() time.Time

	accountSeq  atomic.Int64 // users and organizations
	contentSeq  atomic.Int64 // posts and events
	commentSeq  atomic.Int64
	chatSeq     atomic.Int64
	memberSeq   atomic.Int64
	messageSeq  atomic.Int64
	reactionSeq atomic.Int64
	feedbackSeq atomic.Int64

	usersMu     sync.RWMutex
	users       map[int64]*models.User
	usernames   map[string]int64
	orgsMu      sync.RWMutex
	orgs        map[int64]*models.Organization
	postsMu     sync.RWMutex
	posts       map[int64]*models.Post
	eventsMu    sync.RWMutex
	events      map[int64]*models.Event
	marksMu     sync.RWMutex
	marks       map[markKey]models.Mark
	commentsMu  sync.RWMutex
	comments    map[int64]*models.Comment
	commentIDs  []int64
	chatsMu     sync.RWMutex
	chats       map[int64]*models.Chat
	membersMu   sync.RWMutex
	members     map[int64]map[int64]models.ChatMember // chat -> user -> member
	messagesMu  sync.RWMutex
	messages    map[int64]*models.Message
	messageIDs  []int64
	receiptsMu  sync.RWMutex
	receipts    map[int64]map[int64]models.ReadReceipt // message -> user -> receipt
	reactionsMu sync.RWMutex
	reactions   map[int64][]models.Reaction // message -> reactions
	feedbackMu  sync.Mutex
	feedback    []models.Feedback
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		users:     make(map[int64]*models.User),
		usernames: make(map[string]int64),
		orgs:      make(map[int64]*models.Organization),
		posts:     make(map[int64]*models.Post),
		events:    make(map[int64]*models.Event),
		marks:     make(map[markKey]models.Mark),
		comments:  make(map[int64]*models.Comment),
		chats:     make(map[int64]*models.Chat),
		members:   make(map[int64]map[int64]models.ChatMember),
		messages:  make(map[int64]*models.Message),
		receipts:  make(map[int64]map[int64]models.ReadReceipt),
		reactions: make(map[int64][]models.Reaction),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) stamp() time.Time { return s.now().UTC() }

// window slices items by offset and limit, clamping out-of-range values.
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func matches(value, query string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}
