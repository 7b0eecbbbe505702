package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leavehub/internal/domain/application"
)

type memFeed struct {
	ch chan Change
}

func newMemFeed() *memFeed {
	return &memFeed{ch: make(chan Change, 16)}
}

func (m *memFeed) Events() <-chan Change { return m.ch }

func (m *memFeed) Close() error {
	close(m.ch)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	toasts []Toast
}

func (f *fakeNotifier) Push(toast Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, toast)
}

type fakeRelay struct {
	mu   sync.Mutex
	sent []application.Application
	fail error
}

func (f *fakeRelay) Send(ctx context.Context, app application.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, app)
	return f.fail
}

type fakeLabels struct {
	labels map[string]string
}

func (f *fakeLabels) Label(ctx context.Context, leaveTypeID string) string {
	if label, ok := f.labels[leaveTypeID]; ok {
		return label
	}
	return "Leave"
}

func change(userID, status string) Change {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	return Change{
		Old: application.Application{ID: "app-1", UserID: userID, LeaveTypeID: "annual", StartDate: start, EndDate: end, Status: application.StatusPending},
		New: application.Application{ID: "app-1", UserID: userID, LeaveTypeID: "annual", StartDate: start, EndDate: end, Status: status},
	}
}

type fixture struct {
	bridge   *Bridge
	feed     *memFeed
	notifier *fakeNotifier
	relay    *fakeRelay
	done     chan struct{}
}

func newBridgeFixture() *fixture {
	f := &fixture{
		feed:     newMemFeed(),
		notifier: &fakeNotifier{},
		relay:    &fakeRelay{},
		done:     make(chan struct{}),
	}
	labels := &fakeLabels{labels: map[string]string{"annual": "Annual Leave"}}
	f.bridge = NewBridge(labels, f.notifier, f.relay, 10*time.Second)
	return f
}

func (f *fixture) runAndDrain(t *testing.T, changes ...Change) {
	t.Helper()
	go func() {
		f.bridge.Run(context.Background(), f.feed)
		close(f.done)
	}()
	for _, c := range changes {
		f.feed.ch <- c
	}
	_ = f.feed.Close()
	select {
	case <-f.done:
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not drain the feed")
	}
}

func TestApprovalEmitsExactlyOneToast(t *testing.T) {
	f := newBridgeFixture()
	refreshes := 0
	f.bridge.Subscribe("u1", func() { refreshes++ })

	f.runAndDrain(t, change("u1", application.StatusApproved))

	if len(f.notifier.toasts) != 1 {
		t.Fatalf("expected exactly one toast, got %d", len(f.notifier.toasts))
	}
	toast := f.notifier.toasts[0]
	if toast.Title != "✅ Leave Approved!" {
		t.Fatalf("unexpected title %q", toast.Title)
	}
	if !strings.Contains(toast.Body, "Annual Leave") {
		t.Fatalf("expected resolved label in body, got %q", toast.Body)
	}
	if !strings.Contains(toast.Body, "Mar 2 - Mar 6, 2026") {
		t.Fatalf("expected formatted date range in body, got %q", toast.Body)
	}
	if toast.Duration != 10*time.Second {
		t.Fatalf("expected fixed 10s duration, got %v", toast.Duration)
	}
	if toast.Variant != VariantDefault {
		t.Fatalf("approval must not be styled destructively, got %q", toast.Variant)
	}
	if len(f.relay.sent) != 1 {
		t.Fatalf("expected one relay attempt, got %d", len(f.relay.sent))
	}
	if refreshes != 1 {
		t.Fatalf("expected refresh callback exactly once, got %d", refreshes)
	}
}

func TestRejectionStyledDestructive(t *testing.T) {
	f := newBridgeFixture()
	f.bridge.Subscribe("u1", nil)

	f.runAndDrain(t, change("u1", application.StatusRejected))

	if len(f.notifier.toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(f.notifier.toasts))
	}
	toast := f.notifier.toasts[0]
	if toast.Title != "❌ Leave Rejected" {
		t.Fatalf("unexpected title %q", toast.Title)
	}
	if toast.Variant != VariantDestructive {
		t.Fatalf("rejection must be styled destructively, got %q", toast.Variant)
	}
}

func TestNonPendingTransitionIgnored(t *testing.T) {
	f := newBridgeFixture()
	refreshes := 0
	f.bridge.Subscribe("u1", func() { refreshes++ })

	c := change("u1", application.StatusRejected)
	c.Old.Status = application.StatusApproved
	f.runAndDrain(t, c)

	if len(f.notifier.toasts) != 0 {
		t.Fatalf("approved→rejected must emit nothing, got %d toasts", len(f.notifier.toasts))
	}
	if len(f.relay.sent) != 0 {
		t.Fatal("non-qualifying transition must not relay")
	}
	if refreshes != 0 {
		t.Fatal("non-qualifying transition must not refresh")
	}
}

func TestPendingToPendingIgnored(t *testing.T) {
	f := newBridgeFixture()
	f.bridge.Subscribe("u1", nil)

	f.runAndDrain(t, change("u1", application.StatusPending))

	if len(f.notifier.toasts) != 0 {
		t.Fatal("pending→pending must emit nothing")
	}
}

func TestRelayFailureNeverBlocksToast(t *testing.T) {
	f := newBridgeFixture()
	f.relay.fail = errors.New("webhook unreachable")
	refreshes := 0
	f.bridge.Subscribe("u1", func() { refreshes++ })

	f.runAndDrain(t, change("u1", application.StatusApproved))

	if len(f.notifier.toasts) != 1 {
		t.Fatalf("toast must survive relay failure, got %d", len(f.notifier.toasts))
	}
	if refreshes != 1 {
		t.Fatalf("refresh must survive relay failure, got %d", refreshes)
	}
}

func TestLabelFallback(t *testing.T) {
	f := newBridgeFixture()
	f.bridge.Subscribe("u1", nil)

	c := change("u1", application.StatusApproved)
	c.New.LeaveTypeID = "ghost"
	f.runAndDrain(t, c)

	if len(f.notifier.toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(f.notifier.toasts))
	}
	if !strings.Contains(f.notifier.toasts[0].Body, "Leave") {
		t.Fatalf("expected fallback label in body, got %q", f.notifier.toasts[0].Body)
	}
}

func TestEventsForOtherUsersIgnored(t *testing.T) {
	f := newBridgeFixture()
	f.bridge.Subscribe("u1", nil)

	f.runAndDrain(t, change("u2", application.StatusApproved))

	if len(f.notifier.toasts) != 0 {
		t.Fatal("event for an unsubscribed user must emit nothing")
	}
}

func TestClosedSessionReceivesNothing(t *testing.T) {
	f := newBridgeFixture()
	session := f.bridge.Subscribe("u1", nil)
	session.Close()
	session.Close() // idempotent

	f.runAndDrain(t, change("u1", application.StatusApproved))

	if len(f.notifier.toasts) != 0 {
		t.Fatal("closed session must not receive notifications")
	}
}

func TestRebindDoesNotLeakPriorSubscription(t *testing.T) {
	f := newBridgeFixture()
	refreshes := 0
	session := f.bridge.Subscribe("u1", func() { refreshes++ })
	session.Rebind("u2")

	f.runAndDrain(t, change("u1", application.StatusApproved), change("u2", application.StatusApproved))

	if len(f.notifier.toasts) != 1 {
		t.Fatalf("expected only the rebound user's toast, got %d", len(f.notifier.toasts))
	}
	if f.notifier.toasts[0].UserID != "u2" {
		t.Fatalf("expected toast for u2, got %q", f.notifier.toasts[0].UserID)
	}
	if refreshes != 1 {
		t.Fatalf("expected one refresh after rebind, got %d", refreshes)
	}
}
