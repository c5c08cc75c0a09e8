package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// Dialer opens one push connection and streams its events into sink.
// A successful Dial means the channel is open; everything after that
// arrives as Events.
type Dialer interface {
	Dial(ctx context.Context, sink chan<- Event) (Conn, error)
}

// Conn is a live push connection. It is single-use: once closed it is
// discarded and the manager dials a fresh one.
type Conn interface {
	Close() error
}

// SocketDialer dials the platform's websocket push endpoint.
type SocketDialer struct {
	// URL is the ws/wss endpoint including the client id query.
	URL string

	// Header carries the bearer token for the handshake.
	Header http.Header
}

// Dial opens the websocket and starts the read loop. The returned Conn
// must be closed by the caller when the manager moves on; a read error
// also ends the loop and emits EventClosed.
func (d *SocketDialer) Dial(ctx context.Context, sink chan<- Event) (Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s (status %d): %w", d.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", d.URL, err)
	}

	c := &socketConn{ws: ws, sink: sink}
	go c.readLoop()
	return c, nil
}

// socketConn wraps a single websocket connection.
type socketConn struct {
	ws        *websocket.Conn
	sink      chan<- Event
	closeOnce sync.Once
}

// Close tears down the websocket. The read loop exits on the resulting
// read error; its EventClosed is harmless noise for an already
// disconnected manager.
func (c *socketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

// readLoop decodes frames into payloads until the connection dies.
// Malformed frames are reported and skipped; they never end the
// connection.
func (c *socketConn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.sink <- Event{Kind: EventClosed, Err: err}
			return
		}

		var p model.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			c.sink <- Event{Kind: EventError, Err: &model.MalformedError{
				Reason: fmt.Sprintf("undecodable push frame: %v", err),
			}}
			continue
		}

		c.sink <- Event{Kind: EventMessage, Payload: p}
	}
}
