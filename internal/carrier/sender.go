package carrier

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Sender serializes all writes to the carrier WebSocket behind one mutex,
// preserving the single-writer rule spec §5 requires ("no concurrent
// writes to the WebSocket; use a send-lock around every send").
type Sender struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	streamSID string
}

// NewSender wraps conn. StreamSID is set once the carrier's "start" event
// arrives.
func NewSender(conn *websocket.Conn) *Sender {
	return &Sender{conn: conn}
}

// SetStreamSID records the stream id used to address outbound frames.
func (s *Sender) SetStreamSID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamSID = id
}

// SendMedia writes one base64-wrapped μ-law frame.
func (s *Sender) SendMedia(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, err := EncodeMedia(s.streamSID, payload)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// SendClear writes the "clear" control event.
func (s *Sender) SendClear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, err := EncodeClear(s.streamSID)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close closes the underlying connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
