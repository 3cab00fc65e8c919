package interfaces

import "context"

// -----------------------------------------------------------------------------
// IStreamConn is the subset of a websocket connection the manager uses.
// *websocket.Conn satisfies it directly; tests substitute a fake.
// -----------------------------------------------------------------------------

type IStreamConn interface {

	// -----------------------------------------------------------------------------

	// ReadMessage blocks until the next frame or a transport error.
	ReadMessage() (messageType int, p []byte, err error)

	// -----------------------------------------------------------------------------

	// WriteMessage writes a frame with the given websocket message type.
	WriteMessage(messageType int, data []byte) error

	// -----------------------------------------------------------------------------

	// SetReadLimit caps the size of an inbound frame.
	SetReadLimit(limit int64)

	// -----------------------------------------------------------------------------

	// Close the underlying network connection
	Close() error
}

// -----------------------------------------------------------------------------
// IStreamDialer opens stream connections. The manager never dials the
// network itself so connection behavior stays testable.
// -----------------------------------------------------------------------------

type IStreamDialer interface {

	// -----------------------------------------------------------------------------

	// Dial opens a connection to the given websocket URL.
	Dial(ctx context.Context, url string) (IStreamConn, error)
}
