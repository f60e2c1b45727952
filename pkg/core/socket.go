package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabrielmiguelok/formwizard/pkg/protocol"
)

// Common socket errors.
var (
	ErrSocketClosed   = errors.New("socket is closed")
	ErrSocketNotFound = errors.New("socket not found")
	ErrSendFailed     = errors.New("failed to send message")
	ErrMailboxFull    = errors.New("socket mailbox is full")
)

// DefaultMailboxSize is the number of info messages a socket buffers
// before SendInfo starts rejecting.
const DefaultMailboxSize = 32

// Socket represents a live connection to a client.
// It provides methods for sending messages and managing connection state.
type Socket struct {
	id string

	connected   bool
	connectedAt time.Time

	// Unix nanoseconds.
	lastActivity atomic.Int64

	transport Transport
	metadata  map[string]any

	// info carries server-side messages into the session loop.
	info chan any

	mu sync.RWMutex
}

// Transport is the outbound half of a connection as seen by a socket.
type Transport interface {
	Send(msg protocol.Message) error
	Close() error
	IsConnected() bool
}

// NewSocket creates a new socket with the given ID and transport.
func NewSocket(id string, transport Transport) *Socket {
	now := time.Now()
	s := &Socket{
		id:          id,
		connected:   true,
		connectedAt: now,
		metadata:    make(map[string]any),
		transport:   transport,
		info:        make(chan any, DefaultMailboxSize),
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic returns the channel topic the client joined with.
func (s *Socket) Topic() string {
	return protocol.Topic(s.id)
}

// IsConnected returns true if the socket is connected.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.transport != nil && s.transport.IsConnected()
}

// ConnectedAt returns when the socket connected.
func (s *Socket) ConnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedAt
}

// LastActivity returns the time of last activity.
func (s *Socket) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity updates the last activity timestamp.
func (s *Socket) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Send sends a message to the client.
// Safe to call concurrently with Close.
func (s *Socket) Send(msg protocol.Message) error {
	s.mu.RLock()
	connected := s.connected
	transport := s.transport
	s.mu.RUnlock()

	if !connected || transport == nil {
		return ErrSocketClosed
	}
	if !transport.IsConnected() {
		return ErrSocketClosed
	}

	s.lastActivity.Store(time.Now().UnixNano())

	if err := transport.Send(msg); err != nil {
		s.mu.RLock()
		stillConnected := s.connected
		s.mu.RUnlock()
		if !stillConnected {
			return ErrSocketClosed
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	return nil
}

// Push sends an event to the client.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(protocol.Push(s.Topic(), event, payload))
}

// Reply answers a client message identified by ref.
func (s *Socket) Reply(ref string, response map[string]any) error {
	return s.Send(protocol.OkReply(ref, s.Topic(), response))
}

// SendFull pushes a complete render. The client replaces the live root
// with html and records version.
func (s *Socket) SendFull(version uint64, html string) error {
	return s.Push(protocol.EventDiff, map[string]any{
		"v": version,
		"f": html,
	})
}

// PushJS asks the client to run the given liveview.JS commands in order.
// An empty list sends nothing.
func (s *Socket) PushJS(commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	return s.Push(protocol.EventJS, map[string]any{"cmds": commands})
}

// SendInfo queues msg for the component's HandleInfo. It never blocks, so
// it is safe to call from timers and HTTP handlers.
func (s *Socket) SendInfo(msg any) error {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	if !connected {
		return ErrSocketClosed
	}

	select {
	case s.info <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Info returns the channel of messages queued with SendInfo.
func (s *Socket) Info() <-chan any {
	return s.info
}

// GetMetadata retrieves metadata by key.
func (s *Socket) GetMetadata(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[key]
}

// SetMetadata stores metadata.
func (s *Socket) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

// Close closes the socket connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	transport := s.transport
	s.mu.Unlock()

	if transport != nil {
		return transport.Close()
	}
	return nil
}

// SocketManager tracks the live sockets of a router.
type SocketManager struct {
	sockets    map[string]*Socket
	isShutdown bool
	mu         sync.RWMutex
}

// NewSocketManager creates a new socket manager.
func NewSocketManager() *SocketManager {
	return &SocketManager{
		sockets: make(map[string]*Socket),
	}
}

// Add registers a socket.
func (sm *SocketManager) Add(socket *Socket) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sockets[socket.ID()] = socket
}

// Remove unregisters a socket.
func (sm *SocketManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sockets, id)
}

// Get retrieves a socket by ID.
func (sm *SocketManager) Get(id string) (*Socket, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sockets[id]
	return s, ok
}

// Count returns the number of active sockets.
func (sm *SocketManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sockets)
}

// All returns all sockets.
func (sm *SocketManager) All() []*Socket {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		result = append(result, s)
	}
	return result
}

// Deliver routes an info message to the socket with the given id.
func (sm *SocketManager) Deliver(id string, msg any) error {
	s, ok := sm.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSocketNotFound, id)
	}
	return s.SendInfo(msg)
}

// Shutdown closes every socket. Session loops notice the closed transports
// and terminate their components.
func (sm *SocketManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	if sm.isShutdown {
		sm.mu.Unlock()
		return nil
	}
	sm.isShutdown = true
	sockets := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		sockets = append(sockets, s)
	}
	sm.mu.Unlock()

	for _, s := range sockets {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Close()
	}
	return nil
}

// IsShutdown returns true if the manager is shutting down.
func (sm *SocketManager) IsShutdown() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isShutdown
}

// CleanupInactive removes sockets inactive for longer than the duration.
func (sm *SocketManager) CleanupInactive(ctx context.Context, maxInactive time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	removed := 0

	for id, s := range sm.sockets {
		if now.Sub(s.LastActivity()) > maxInactive {
			s.Close()
			delete(sm.sockets, id)
			removed++
		}
	}

	return removed
}
