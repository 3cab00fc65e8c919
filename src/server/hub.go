package server

import (
	"encoding/json"
	"net/http"

	"trade-streamer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop. It owns the client set: registration,
// pruning and fan-out all happen here.
func (s *StatusServer) runHub() {
	for {
		select {
		case <-s.stop:
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()
			return

		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

			// Send the current stream status on connect
			frame := &outboundFrame{
				frameType: models.FrameConnectionStatus,
				payload:   statusFrame(s.Stream.Status()),
			}
			select {
			case client.send <- frame:
			default:
			}

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()

		case frame := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				if !client.wants(frame.frameType) {
					continue
				}
				select {
				case client.send <- frame:
					// Frame queued successfully
				default:
					// Client too slow, disconnect to prevent hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *StatusServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the hub loop
		send: make(chan *outboundFrame, 256),
	}

	select {
	case s.register <- client:
	case <-s.stop:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage parses monitor commands. Subscribe narrows the
// frame types a client receives; an empty list means everything.
func (s *StatusServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MMonitorCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse monitor command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.setTypes(cmd.Types)
	s.Logger.Debug("Monitor client subscribed to %d frame types", len(cmd.Types))
}
