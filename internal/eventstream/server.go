package eventstream

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/watchloop/observatory/internal/trace"
)

// Event is the JSON shape pushed to each watch subscriber over the
// wire: Kind discriminates how a client should interpret Payload, the
// same discipline orchestrator.ProcessingEvent enforces in-process.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Handler upgrades each request to a websocket and streams b's events
// to it until the client disconnects or the request context is cancelled.
func Handler(b *Broadcaster) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		events, unsubscribe := b.Subscribe()
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				wire := Event{Kind: ev.Kind().String(), Timestamp: ev.Timestamp(), Payload: ev}
				if err := wsjson.Write(ctx, conn, wire); err != nil {
					trace.Logger(ctx).Debug("watch client disconnected", "error", err)
					return
				}
			}
		}
	})
}

// Dial connects to a running capture daemon's watch endpoint at addr
// (host:port, no scheme) and returns the open connection, which Receive
// reads Events from, for cmd/captured status --watch.
func Dial(ctx context.Context, addr string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/events", nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Receive reads one Event off conn, blocking until it arrives or ctx is
// cancelled.
func Receive(ctx context.Context, conn *websocket.Conn) (Event, error) {
	var ev Event
	err := wsjson.Read(ctx, conn, &ev)
	return ev, err
}
