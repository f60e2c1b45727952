// Package livetest drives live components in tests without a browser or a
// websocket. A View plays the part of the router's session loop: it mounts
// the component, dispatches events and info messages, pushes the new render
// and runs the component's post-render commands, all on the test goroutine.
package livetest

import (
	"errors"
	"sync"

	"github.com/gabrielmiguelok/formwizard/pkg/protocol"
)

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("livetest: transport closed")

// Transport records every message a socket sends. It satisfies
// core.Transport.
type Transport struct {
	mu       sync.Mutex
	messages []protocol.Message
	closed   bool
	sendErr  error
}

// NewTransport returns a connected recording transport.
func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) Send(msg protocol.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	t.messages = append(t.messages, msg)
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// FailWith makes every following Send return err. nil restores delivery.
func (t *Transport) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// Messages returns a copy of everything sent so far.
func (t *Transport) Messages() []protocol.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]protocol.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Events returns the messages with the given event name.
func (t *Transport) Events(event string) []protocol.Message {
	var out []protocol.Message
	for _, m := range t.Messages() {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

// Commands flattens the client commands of every js push, in send order.
func (t *Transport) Commands() []string {
	var out []string
	for _, m := range t.Events(protocol.EventJS) {
		cmds, _ := m.Payload["cmds"].([]string)
		out = append(out, cmds...)
	}
	return out
}

// LastRender returns the HTML of the latest full render pushed as a diff.
func (t *Transport) LastRender() (string, bool) {
	diffs := t.Events(protocol.EventDiff)
	if len(diffs) == 0 {
		return "", false
	}
	html, ok := diffs[len(diffs)-1].Payload["f"].(string)
	return html, ok
}

// Reset forgets recorded messages.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
