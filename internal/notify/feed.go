package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavehub/internal/domain/application"
)

// ChannelName is the Postgres notification channel the row-update trigger
// publishes to.
const ChannelName = "leave_application_events"

// wireDate accepts both DATE ("2006-01-02") and timestamp payloads from
// row_to_json.
type wireDate time.Time

func (d *wireDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = wireDate(time.Time{})
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = wireDate(t)
			return nil
		}
	}
	return fmt.Errorf("unrecognized date %q", s)
}

type wireApplication struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	LeaveTypeID string   `json:"leave_type_id"`
	StartDate   wireDate `json:"start_date"`
	EndDate     wireDate `json:"end_date"`
	Status      string   `json:"status"`
}

func (w wireApplication) toApplication() application.Application {
	return application.Application{
		ID:          w.ID,
		UserID:      w.UserID,
		LeaveTypeID: w.LeaveTypeID,
		StartDate:   time.Time(w.StartDate),
		EndDate:     time.Time(w.EndDate),
		Status:      w.Status,
	}
}

func decodeChange(payload []byte) (Change, error) {
	var wire struct {
		Old wireApplication `json:"old"`
		New wireApplication `json:"new"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Change{}, err
	}
	return Change{Old: wire.Old.toApplication(), New: wire.New.toApplication()}, nil
}

// PGFeed adapts LISTEN/NOTIFY on the applications table into the bridge's
// event queue. It holds one dedicated connection from the pool.
type PGFeed struct {
	events chan Change
	cancel context.CancelFunc
	done   chan struct{}
}

func ListenFeed(ctx context.Context, pool *pgxpool.Pool) (*PGFeed, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ChannelName); err != nil {
		conn.Release()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	f := &PGFeed{
		events: make(chan Change, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.run(runCtx, conn)
	return f, nil
}

func (f *PGFeed) run(ctx context.Context, conn *pgxpool.Conn) {
	defer close(f.done)
	defer close(f.events)
	defer conn.Release()

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("change feed wait failed", "err", err)
			}
			return
		}

		change, err := decodeChange([]byte(notification.Payload))
		if err != nil {
			slog.Warn("change feed payload decode failed", "err", err)
			continue
		}

		select {
		case f.events <- change:
		case <-ctx.Done():
			return
		}
	}
}

func (f *PGFeed) Events() <-chan Change {
	return f.events
}

// Close synchronously releases the listener connection and closes Events.
func (f *PGFeed) Close() error {
	f.cancel()
	<-f.done
	return nil
}
