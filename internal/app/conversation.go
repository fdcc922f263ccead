package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quiz-chat-service/internal/domain"

	"github.com/google/uuid"
)

// MessageGateway is the remote side of a support conversation.
type MessageGateway interface {
	FetchMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	SendMessage(ctx context.Context, userID, text string) error
}

// ConversationConfig tunes timing and identity generation of a Conversation.
type ConversationConfig struct {
	FetchTimeout time.Duration
	ResyncDelay  time.Duration
	Now          func() time.Time
	NewID        func() string
}

const defaultResyncDelay = time.Second

// Conversation is the locally held view of one user's support chat.
// The message list is append-only: entries are never reordered or removed, and a
// pending entry is only ever replaced in place by its authoritative copy.
type Conversation struct {
	userID       string
	gateway      MessageGateway
	fetchTimeout time.Duration
	resyncDelay  time.Duration
	now          func() time.Time
	newID        func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	messages    []domain.ChatMessage
	highWater   string
	anchor      string
	draft       string
	sending     bool
	composing   bool
	reconciling bool
	closed      bool
	timers      map[*time.Timer]struct{}
	subscribers map[chan domain.ChatUpdate]struct{}
}

func NewConversation(userID string, gateway MessageGateway, cfg ConversationConfig) *Conversation {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.ResyncDelay <= 0 {
		cfg.ResyncDelay = defaultResyncDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Conversation{
		userID:       userID,
		gateway:      gateway,
		fetchTimeout: cfg.FetchTimeout,
		resyncDelay:  cfg.ResyncDelay,
		now:          cfg.Now,
		newID:        cfg.NewID,
		ctx:          ctx,
		cancel:       cancel,
		timers:       make(map[*time.Timer]struct{}),
		subscribers:  make(map[chan domain.ChatUpdate]struct{}),
	}
}

// UserID identifies whose conversation this is.
func (c *Conversation) UserID() string { return c.userID }

// Done is closed once the conversation is closed.
func (c *Conversation) Done() <-chan struct{} { return c.ctx.Done() }

// LoadFull replaces the local list with the authoritative history. Used for the
// initial load only; background polling goes through Reconcile.
func (c *Conversation) LoadFull(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConversationClosed
	}
	fetched, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConversationClosed
	}
	c.replaceLocked(fetched)
	return nil
}

// Reconcile pulls the authoritative history and appends what is new after the last
// authoritative message known locally. It is a no-op while a send is in flight, while
// the user is composing, while another reconcile runs, or after close.
func (c *Conversation) Reconcile(ctx context.Context) (domain.ChatUpdate, error) {
	if !c.beginPull() {
		return domain.ChatUpdate{}, nil
	}
	fetched, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconciling = false
	if err != nil {
		return domain.ChatUpdate{}, err
	}
	// The gate may have flipped while fetching; a stale pull is discarded, not merged.
	if c.closed || ctx.Err() != nil || c.sending || c.composing {
		return domain.ChatUpdate{}, nil
	}
	return c.mergeLocked(fetched)
}

// Poll runs one background reconcile. When the local anchor has disappeared from the
// server history it falls back to a full resync, as long as the user is idle.
func (c *Conversation) Poll(ctx context.Context) error {
	_, err := c.Reconcile(ctx)
	if errors.Is(err, domain.ErrHistoryDiverged) {
		return c.resync(ctx)
	}
	return err
}

// Run polls every interval until ctx is done or the conversation is closed. A
// non-positive interval falls back to the default. Poll failures are handed to onErr
// and never stop the loop.
func (c *Conversation) Run(ctx context.Context, interval time.Duration, onErr func(error)) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.Poll(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

// Send submits text. The draft is cleared up front and restored if the gateway fails.
func (c *Conversation) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConversationClosed
	}
	if c.sending {
		c.mu.Unlock()
		return domain.ErrSendInProgress
	}
	c.sending = true
	c.composing = false
	c.draft = ""
	c.mu.Unlock()

	err := c.send(ctx, trimmed)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		c.draft = text
		return fmt.Errorf("%w: %w", domain.ErrSendFailed, err)
	}
	if c.closed {
		return nil
	}

	msg := domain.ChatMessage{
		ID:         c.newID(),
		Text:       trimmed,
		Sender:     domain.RoleUser,
		SentAt:     c.now(),
		Provenance: domain.ProvenancePending,
	}
	c.messages = append(c.messages, msg)
	c.highWater = msg.ID
	c.broadcastLocked(domain.ChatUpdate{Appended: []domain.ChatMessage{msg}})
	c.scheduleReconcileLocked()
	return nil
}

// SetComposing flags whether the user is typing; background pulls pause meanwhile.
func (c *Conversation) SetComposing(active bool) {
	c.mu.Lock()
	c.composing = active
	c.mu.Unlock()
}

// SetDraft stores the outbound text buffer.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the outbound text buffer.
func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Sending reports whether a send is in flight.
func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Composing reports whether the user is typing.
func (c *Conversation) Composing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composing
}

// HighWaterMark is the id of the last message in the local list.
func (c *Conversation) HighWaterMark() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highWater
}

// Messages returns a copy of the local list.
func (c *Conversation) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel of list changes. The caller must invoke the returned
// cancel function to avoid leaks; closing the conversation closes all channels.
func (c *Conversation) Subscribe() (<-chan domain.ChatUpdate, func()) {
	ch := make(chan domain.ChatUpdate, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// Close stops pending timers, aborts in-flight fetches and detaches observers.
func (c *Conversation) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	for ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
	c.mu.Unlock()
	c.cancel()
}

func (c *Conversation) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// resync replaces the list wholesale; pending entries are dropped because the server
// history is complete once the anchor can no longer be trusted.
func (c *Conversation) resync(ctx context.Context) error {
	if !c.beginPull() {
		return nil
	}
	fetched, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconciling = false
	if err != nil {
		return err
	}
	if c.closed || ctx.Err() != nil || c.sending || c.composing {
		return nil
	}
	c.replaceLocked(fetched)
	return nil
}

// beginPull claims the single pull slot. It fails while a send is in flight, while the
// user is composing, while another pull runs, or after close. The caller clears
// c.reconciling under c.mu once its fetch returns.
func (c *Conversation) beginPull() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sending || c.composing || c.reconciling {
		return false
	}
	c.reconciling = true
	return true
}

func (c *Conversation) fetch(ctx context.Context) ([]domain.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	msgs, err := c.gateway.FetchMessages(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	for i := range msgs {
		msgs[i].Provenance = domain.ProvenanceAuthoritative
	}
	return msgs, nil
}

func (c *Conversation) send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()
	return c.gateway.SendMessage(ctx, c.userID, text)
}

func (c *Conversation) replaceLocked(fetched []domain.ChatMessage) {
	c.messages = append([]domain.ChatMessage(nil), fetched...)
	c.anchor, c.highWater = "", ""
	if n := len(c.messages); n > 0 {
		c.anchor = c.messages[n-1].ID
		c.highWater = c.anchor
	}
	c.broadcastLocked(domain.ChatUpdate{Reloaded: true})
}

func (c *Conversation) mergeLocked(fetched []domain.ChatMessage) (domain.ChatUpdate, error) {
	start := 0
	if c.anchor != "" {
		idx := indexOfMessage(fetched, c.anchor)
		if idx < 0 {
			return domain.ChatUpdate{}, domain.ErrHistoryDiverged
		}
		start = idx + 1
	}
	incoming := fetched[start:]
	if len(incoming) == 0 {
		return domain.ChatUpdate{}, nil
	}

	known := make(map[string]struct{}, len(c.messages))
	for _, m := range c.messages {
		if !m.Pending() {
			known[m.ID] = struct{}{}
		}
	}

	var update domain.ChatUpdate
	for _, m := range incoming {
		if _, dup := known[m.ID]; dup {
			continue
		}
		known[m.ID] = struct{}{}
		if i := c.pendingMatchLocked(m); i >= 0 {
			c.messages[i] = m
			update.Replaced = append(update.Replaced, m)
			continue
		}
		c.messages = append(c.messages, m)
		update.Appended = append(update.Appended, m)
	}
	c.anchor = incoming[len(incoming)-1].ID
	if n := len(c.messages); n > 0 {
		c.highWater = c.messages[n-1].ID
	}
	if len(update.Appended) == 0 && len(update.Replaced) == 0 {
		return domain.ChatUpdate{}, nil
	}
	c.broadcastLocked(update)
	update.Messages = c.snapshotLocked()
	return update, nil
}

// pendingMatchLocked finds the oldest pending entry the authoritative message supersedes.
func (c *Conversation) pendingMatchLocked(m domain.ChatMessage) int {
	for i, local := range c.messages {
		if local.Pending() && local.Sender == m.Sender && local.Text == strings.TrimSpace(m.Text) {
			return i
		}
	}
	return -1
}

func (c *Conversation) scheduleReconcileLocked() {
	var t *time.Timer
	// The callback takes c.mu, so it cannot observe t before the assignment below.
	t = time.AfterFunc(c.resyncDelay, func() {
		c.mu.Lock()
		delete(c.timers, t)
		c.mu.Unlock()
		_ = c.Poll(c.ctx)
	})
	c.timers[t] = struct{}{}
}

func (c *Conversation) broadcastLocked(update domain.ChatUpdate) {
	update.Messages = c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest queued update; the snapshot in the new one supersedes it.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

func (c *Conversation) snapshotLocked() []domain.ChatMessage {
	return append([]domain.ChatMessage(nil), c.messages...)
}

func indexOfMessage(msgs []domain.ChatMessage, id string) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}
