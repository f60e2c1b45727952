package livetest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/formwizard/pkg/core"
)

// View is a mounted component under test.
type View struct {
	t         testing.TB
	comp      core.Component
	socket    *core.Socket
	transport *Transport
	ctx       context.Context
	version   uint64
}

type mountConfig struct {
	socketID string
	params   core.Params
	session  core.Session
}

// Option configures Mount.
type Option func(*mountConfig)

// WithParams sets the mount params.
func WithParams(params core.Params) Option {
	return func(c *mountConfig) {
		for k, v := range params {
			c.params[k] = v
		}
	}
}

// WithSession merges session values.
func WithSession(session core.Session) Option {
	return func(c *mountConfig) {
		for k, v := range session {
			c.session[k] = v
		}
	}
}

// WithCookie sets a request cookie the way the router copies it into the
// session.
func WithCookie(name, value string) Option {
	return func(c *mountConfig) {
		c.session["cookie:"+name] = value
	}
}

// WithSocketID overrides the socket id.
func WithSocketID(id string) Option {
	return func(c *mountConfig) {
		c.socketID = id
	}
}

// Mount attaches a socket to comp, mounts it and runs the post-join
// commands. Mount errors fail the test.
func Mount(t testing.TB, comp core.Component, opts ...Option) *View {
	t.Helper()

	cfg := &mountConfig{
		socketID: "livetest",
		params:   core.Params{},
		session:  core.Session{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tr := NewTransport()
	socket := core.NewSocket(cfg.socketID, tr)
	if setter, ok := comp.(interface{ SetSocket(*core.Socket) }); ok {
		setter.SetSocket(socket)
	}

	v := &View{
		t:         t,
		comp:      comp,
		socket:    socket,
		transport: tr,
		ctx:       core.BuildContext(context.Background(), socket, cfg.session, cfg.params),
	}
	t.Cleanup(func() {
		comp.Terminate(context.Background(), core.TerminateNormal)
		socket.Close()
	})

	require.NoError(t, comp.Mount(v.ctx, cfg.params, cfg.session), "mount %s", comp.Name())
	v.afterRender()
	return v
}

// Context returns the session context the component sees.
func (v *View) Context() context.Context { return v.ctx }

// Socket returns the component's socket.
func (v *View) Socket() *core.Socket { return v.socket }

// Transport returns the recording transport behind the socket.
func (v *View) Transport() *Transport { return v.transport }

// Commands returns the client commands pushed so far.
func (v *View) Commands() []string { return v.transport.Commands() }

// HTML renders the component now.
func (v *View) HTML() string {
	v.t.Helper()
	renderer := v.comp.Render(v.ctx)
	require.NotNil(v.t, renderer, "nil renderer")

	var buf bytes.Buffer
	require.NoError(v.t, renderer.Render(v.ctx, &buf))
	return buf.String()
}

// Event dispatches a client event. On success the new render is pushed and
// post-render commands run; on error nothing is pushed.
func (v *View) Event(event string, payload map[string]any) error {
	v.t.Helper()
	if payload == nil {
		payload = map[string]any{}
	}
	if err := v.comp.HandleEvent(v.ctx, event, payload); err != nil {
		return err
	}
	v.push()
	return nil
}

// MustEvent is Event that fails the test on error.
func (v *View) MustEvent(event string, payload map[string]any) {
	v.t.Helper()
	require.NoError(v.t, v.Event(event, payload), "event %q", event)
}

// Info delivers a server-side message as the session loop would.
func (v *View) Info(msg any) error {
	v.t.Helper()
	if err := v.comp.HandleInfo(v.ctx, msg); err != nil {
		return err
	}
	v.push()
	return nil
}

// AwaitInfo waits for the next message queued with Socket.SendInfo and
// returns it without dispatching.
func (v *View) AwaitInfo(timeout time.Duration) any {
	v.t.Helper()
	select {
	case msg := <-v.socket.Info():
		return msg
	case <-time.After(timeout):
		v.t.Fatalf("no info message within %s", timeout)
		return nil
	}
}

// AssertContains checks the current render for every fragment.
func (v *View) AssertContains(fragments ...string) {
	v.t.Helper()
	html := v.HTML()
	for _, f := range fragments {
		assert.Contains(v.t, html, f)
	}
}

// AssertNotContains checks that no fragment appears in the current render.
func (v *View) AssertNotContains(fragments ...string) {
	v.t.Helper()
	html := v.HTML()
	for _, f := range fragments {
		assert.NotContains(v.t, html, f)
	}
}

func (v *View) push() {
	v.t.Helper()
	v.version++
	require.NoError(v.t, v.socket.SendFull(v.version, v.HTML()))
	v.afterRender()
}

func (v *View) afterRender() {
	v.t.Helper()
	if ar, ok := v.comp.(core.AfterRenderer); ok {
		require.NoError(v.t, ar.AfterRender(v.ctx))
	}
}
