package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is the named-event envelope every frame carries.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Status is the lifecycle state of a Session.
type Status int

const (
	StatusUninitialized Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusDisconnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnected:
		return "disconnected"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ErrNotConnected is returned by Send while no connection is up.
// Sends are fire-and-forget: the core never re-queues them.
var ErrNotConnected = errors.New("transport: not connected")

// Session owns the one persistent connection to the board server. It
// is constructed and owned by the process entry point and injected
// into the components that need it; exactly one is active at a time.
//
// Inbound frames arrive on Inbound() and lifecycle transitions on
// StatusChanges(); the consumer (the board engine) is expected to call
// Dispatch from a single goroutine, so registered handlers never run
// concurrently with each other or with the rest of the engine state.
//
// Reconnection is bounded: after attempts consecutive dial failures
// the session gives up and reports StatusFailed. A successful connect
// refills the attempt budget. The server re-sends a fresh identity and
// full stroke history after every connect, so the consumer must treat
// every StatusConnected as a potential identity change.
type Session struct {
	url      string
	dialer   *websocket.Dialer
	attempts int
	delay    time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	status   Status
	handlers map[string]func(json.RawMessage)

	inbound  chan Message
	statusCh chan Status

	closed    chan struct{}
	closeOnce sync.Once
}

func NewSession(url string, attempts int, delay time.Duration) *Session {
	if attempts < 1 {
		attempts = 1
	}
	return &Session{
		url:      url,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		attempts: attempts,
		delay:    delay,
		status:   StatusUninitialized,
		handlers: make(map[string]func(json.RawMessage)),
		inbound:  make(chan Message, 64),
		statusCh: make(chan Status, 16),
		closed:   make(chan struct{}),
	}
}

// Connect starts the connection manager. Call once, eagerly at process
// start, so the connection is warm by the time an identity is bound.
func (s *Session) Connect() {
	s.setStatus(StatusConnecting)
	go s.run()
}

// Inbound delivers every received frame, in arrival order.
func (s *Session) Inbound() <-chan Message {
	return s.inbound
}

// StatusChanges delivers every lifecycle transition in order. The
// channel must be drained for the session to make progress.
func (s *Session) StatusChanges() <-chan Status {
	return s.statusCh
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// On registers the handler for a named event, replacing any previous
// one. Handlers run only inside Dispatch.
func (s *Session) On(event string, handler func(json.RawMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = handler
}

// Off removes the handler for a named event.
func (s *Session) Off(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, event)
}

// Dispatch routes one inbound frame to its registered handler. Frames
// with no handler are dropped.
func (s *Session) Dispatch(m Message) {
	s.mu.Lock()
	handler := s.handlers[m.Type]
	s.mu.Unlock()
	if handler != nil {
		handler(m.Data)
	}
}

// Send writes one named event. Fire-and-forget: an error means the
// payload was lost and the caller should not retry through this core.
func (s *Session) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transport: marshal %s: %w", event, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusConnected || s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.WriteJSON(Message{Type: event, Data: data}); err != nil {
		return fmt.Errorf("transport: send %s: %w", event, err)
	}
	return nil
}

// Teardown closes the connection and stops the manager. Idempotent.
func (s *Session) Teardown() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
		s.setStatus(StatusDisconnected)
	})
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	if s.status == st {
		s.mu.Unlock()
		return
	}
	s.status = st
	s.mu.Unlock()
	log.Printf("[transport] %s", st)
	// Every transition is delivered: the consumer keys identity
	// rebinding off StatusConnected, so dropping one is not an option.
	// The send parks until the engine loop reads it or the session is
	// torn down.
	select {
	case s.statusCh <- st:
	case <-s.closed:
	}
}

func (s *Session) run() {
	remaining := s.attempts
	for {
		select {
		case <-s.closed:
			return
		default:
		}

		conn, resp, err := s.dialer.Dial(s.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			remaining--
			if remaining <= 0 {
				log.Printf("[transport] dial %s: %v (giving up)", s.url, err)
				s.setStatus(StatusFailed)
				return
			}
			log.Printf("[transport] dial %s: %v (retry in %s, %d left)", s.url, err, s.delay, remaining)
			s.setStatus(StatusReconnecting)
			select {
			case <-time.After(s.delay):
			case <-s.closed:
				return
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		remaining = s.attempts
		s.setStatus(StatusConnected)

		s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()

		select {
		case <-s.closed:
			return
		default:
		}
		s.setStatus(StatusReconnecting)
		select {
		case <-time.After(s.delay):
		case <-s.closed:
			return
		}
	}
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			select {
			case <-s.closed:
			default:
				log.Printf("[transport] read: %v", err)
			}
			conn.Close()
			return
		}
		if m.Type == "" {
			continue
		}
		select {
		case s.inbound <- m:
		case <-s.closed:
			conn.Close()
			return
		}
	}
}
