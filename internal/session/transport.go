package session

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Message type constants mirror gorilla/websocket's, duplicated here so
// this package does not leak a gorilla/websocket import to callers that
// only need the Transport interface (e.g. tests using stubTransport).
const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
	CloseMessage  = websocket.CloseMessage
)

// Transport is the minimal duplex message interface Session needs. Its
// method set is deliberately identical to *websocket.Conn's so that a real
// connection can be used directly; stubTransport (stub_test.go) backs
// it with in-memory channels for the §8 scenario tests.
type Transport interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dial opens a websocket connection to serverURL. It is the sole producer
// of a real Transport; everything downstream of Connecting only depends on
// the Transport interface.
func Dial(serverURL string) (Transport, error) {
	if _, err := url.Parse(serverURL); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("parse server url: %w", err)}
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(serverURL, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return conn, nil
}
