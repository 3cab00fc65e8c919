package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trade-streamer/src/helpers"
	"trade-streamer/src/interfaces"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------

// WebsocketDialer opens gorilla websocket connections. It is the one
// production implementation of IStreamDialer.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

var _ interfaces.IStreamDialer = (*WebsocketDialer)(nil)

// -----------------------------------------------------------------------------

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (interfaces.IStreamConn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, helpers.NewTransportError(fmt.Sprintf("dial %s (http %d)", url, resp.StatusCode), err)
		}
		return nil, helpers.NewTransportError(fmt.Sprintf("dial %s", url), err)
	}

	return conn, nil
}
