package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"leavehub/internal/domain/application"
)

// Change is one update event on a leave-application row, delivered by the
// backend change feed in emit order.
type Change struct {
	Old application.Application
	New application.Application
}

// Feed is the inbound event queue the bridge consumes. Close releases the
// underlying channel; Events is closed afterwards.
type Feed interface {
	Events() <-chan Change
	Close() error
}

// Toast is the user-visible notification pushed to the owning session.
type Toast struct {
	UserID   string        `json:"userId"`
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Variant  string        `json:"variant"`
	Duration time.Duration `json:"duration"`
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

type Notifier interface {
	Push(toast Toast)
}

// Relay forwards a resolved application to the external chat webhook.
// Failures are the caller's to swallow; they never gate the local toast.
type Relay interface {
	Send(ctx context.Context, app application.Application) error
}

type LabelResolver interface {
	Label(ctx context.Context, leaveTypeID string) string
}

// Bridge consumes the change feed and fans qualifying transitions out to
// subscribed sessions: one toast, one best-effort relay, one refresh
// callback per session.
type Bridge struct {
	labels        LabelResolver
	notifier      Notifier
	relay         Relay
	toastDuration time.Duration

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// Session is one subscriber handle; at most one subscription is active per
// handle at any time.
type Session struct {
	bridge  *Bridge
	userID  string
	refresh func()
	closed  bool
}

func NewBridge(labels LabelResolver, notifier Notifier, relay Relay, toastDuration time.Duration) *Bridge {
	return &Bridge{
		labels:        labels,
		notifier:      notifier,
		relay:         relay,
		toastDuration: toastDuration,
		sessions:      make(map[*Session]struct{}),
	}
}

// Subscribe registers a session scoped to userID. refresh may be nil.
func (b *Bridge) Subscribe(userID string, refresh func()) *Session {
	s := &Session{bridge: b, userID: userID, refresh: refresh}
	b.mu.Lock()
	b.sessions[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Rebind switches the session to a different user without leaking the
// prior subscription.
func (s *Session) Rebind(userID string) {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	if s.closed {
		return
	}
	s.userID = userID
}

// Close releases the subscription synchronously; it is idempotent.
func (s *Session) Close() {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.bridge.sessions, s)
}

// Run consumes the feed until the context is cancelled or the feed closes.
func (b *Bridge) Run(ctx context.Context, feed Feed) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-feed.Events():
			if !ok {
				return
			}
			b.handle(ctx, change)
		}
	}
}

// handle applies the transition guard and, for a qualifying change,
// performs the ordered best-effort effects.
func (b *Bridge) handle(ctx context.Context, change Change) {
	if change.Old.Status != application.StatusPending || change.New.Status == application.StatusPending {
		return
	}

	b.mu.Lock()
	var subscribed []*Session
	for s := range b.sessions {
		if s.userID == change.New.UserID {
			subscribed = append(subscribed, s)
		}
	}
	b.mu.Unlock()
	if len(subscribed) == 0 {
		return
	}

	label := b.labels.Label(ctx, change.New.LeaveTypeID)
	b.notifier.Push(b.buildToast(change.New, label))

	if err := b.relay.Send(ctx, change.New); err != nil {
		slog.Warn("chat webhook relay failed", "applicationId", change.New.ID, "err", err)
	}

	for _, s := range subscribed {
		if s.refresh != nil {
			s.refresh()
		}
	}
}

func (b *Bridge) buildToast(app application.Application, label string) Toast {
	title := "❌ Leave Rejected"
	variant := VariantDestructive
	verb := "rejected"
	if app.Status == application.StatusApproved {
		title = "✅ Leave Approved!"
		variant = VariantDefault
		verb = "approved"
	}
	return Toast{
		UserID:   app.UserID,
		Title:    title,
		Body:     fmt.Sprintf("Your %s request for %s has been %s.", label, app.DateRange(), verb),
		Variant:  variant,
		Duration: b.toastDuration,
	}
}
