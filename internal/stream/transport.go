package stream

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// Transport seam: the manager never touches gorilla directly, so tests can
// drive the state machine with an in-memory fake.

// Conn is one live stream connection
type Conn interface {
	// ReadMessage blocks for the next text frame
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens stream connections
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebsocketDialer is the production Dialer backed by gorilla/websocket
type WebsocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer creates a dialer with gorilla's defaults
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{dialer: websocket.DefaultDialer}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &wsConn{conn: conn}, nil
}

// wsConn adapts *websocket.Conn to the Conn interface
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
