// Package router serves live components over HTTP and websocket.
package router

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"

	"github.com/gabrielmiguelok/formwizard/pkg/core"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/pool"
	"github.com/gabrielmiguelok/formwizard/pkg/protocol"
	"github.com/gabrielmiguelok/formwizard/pkg/transport"
)

// Common router errors.
var (
	ErrNotJoined = errors.New("event before join")
)

// Router handles HTTP routing for live components.
type Router struct {
	mux          *http.ServeMux
	middleware   []Middleware
	errorHandler ErrorHandler

	sessionManager *LiveViewSessionManager
	socketManager  *core.SocketManager

	logger          logging.Logger
	transportConfig *transport.TransportConfig
	wsConfig        *transport.WebSocketConfig
	timeouts        core.TimeoutConfig

	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the ServeMux pattern.
	Path string

	// Component creates a fresh component per page load or connection.
	Component func() core.Component

	// Layout wraps the static render into a full page.
	Layout Layout

	// Middleware are route-specific middleware.
	Middleware []Middleware
}

// Layout wraps the rendered component into a complete document.
type Layout func(ctx context.Context, content core.Renderer) core.Renderer

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTransportConfig sets websocket buffer sizes and timeouts.
func WithTransportConfig(config *transport.TransportConfig) Option {
	return func(r *Router) {
		r.transportConfig = config
	}
}

// WithWebSocketConfig sets origin checking for websocket upgrades.
func WithWebSocketConfig(config *transport.WebSocketConfig) Option {
	return func(r *Router) {
		r.wsConfig = config
	}
}

// WithTimeouts sets the component call timeouts.
func WithTimeouts(timeouts core.TimeoutConfig) Option {
	return func(r *Router) {
		r.timeouts = timeouts
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		sessionManager:  NewLiveViewSessionManager(),
		socketManager:   core.NewSocketManager(),
		logger:          logging.DefaultLogger,
		transportConfig: transport.DefaultTransportConfig(),
		wsConfig:        transport.DefaultWebSocketConfig(),
		timeouts:        core.DefaultTimeoutConfig(),
	}
	r.errorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		r.logger.Error("request failed", logging.String("path", req.URL.Path), logging.Err(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Handlers registered before the call
// do not see it; live routes always do.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// SessionManager returns the session manager.
func (r *Router) SessionManager() *LiveViewSessionManager {
	return r.sessionManager
}

// SocketManager returns the socket manager.
func (r *Router) SocketManager() *core.SocketManager {
	return r.socketManager
}

// Deliver queues msg for the HandleInfo of the component behind socketID.
func (r *Router) Deliver(socketID string, msg any) error {
	return r.socketManager.Deliver(socketID, msg)
}

// Shutdown closes every live socket.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.socketManager.Shutdown(ctx)
}

// Live registers a live route.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:      path,
		Component: component,
	}
	for _, opt := range opts {
		opt(route)
	}

	r.mux.HandleFunc(path, r.handleLive(route))
}

// Handle registers a standard HTTP handler.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, r.wrap(handler, nil))
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) wrap(h http.Handler, route []Middleware) http.Handler {
	for i := len(route) - 1; i >= 0; i-- {
		h = route[i](h)
	}

	r.mu.RLock()
	middleware := make([]Middleware, len(r.middleware))
	copy(middleware, r.middleware)
	r.mu.RUnlock()

	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

func (r *Router) handleLive(route *LiveRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		handler := r.wrap(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.renderLive(w, req, route)
		}), route.Middleware)
		handler.ServeHTTP(w, req)
	}
}

// renderLive answers a page load with a static render, or upgrades the
// request into a live session.
func (r *Router) renderLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if isWebSocketRequest(req) {
		r.handleWebSocket(w, req, route)
		return
	}

	ctx := req.Context()
	component := route.Component()
	defer component.Terminate(context.Background(), core.TerminateNormal)

	mctx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentMount)
	err := component.Mount(mctx, extractParams(req), r.extractSession(req))
	cancel()
	if err != nil {
		r.errorHandler(w, req, fmt.Errorf("mount %s: %w", component.Name(), err))
		return
	}

	renderer := component.Render(ctx)
	if renderer == nil {
		r.errorHandler(w, req, ErrNilRenderer)
		return
	}
	if route.Layout != nil {
		renderer = route.Layout(ctx, renderer)
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := renderer.Render(ctx, buf); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	codec, err := protocol.CodecByName(req.URL.Query().Get("vsn"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws := transport.NewWebSocketTransport(r.transportConfig, r.wsConfig, codec, r.logger)
	if err := ws.Upgrade(w, req); err != nil {
		r.logger.Warn("websocket upgrade failed",
			logging.String("origin", req.Header.Get("Origin")),
			logging.Err(err),
		)
		return
	}

	socketID := generateSocketID()
	socket := core.NewSocket(socketID, ws)

	component := route.Component()
	if bc, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
		bc.SetSocket(socket)
	}

	params := extractParams(req)
	session := r.extractSession(req)

	lvSession := r.sessionManager.Create(socketID, component, params, session)
	lvSession.Transport = ws
	lvSession.Socket = socket
	r.socketManager.Add(socket)

	// The connection outlives req, so the session gets its own context.
	ctx := core.BuildContext(context.Background(), socket, session, params)
	logger := r.logger.With(logging.String("socket", socketID), logging.String("codec", codec.Name()))
	ctx = logging.ContextWithLogger(ctx, logger)

	logger.Debug("live session opened")
	go r.messageLoop(ctx, lvSession)
}

// messageLoop is the only goroutine that touches the session's component.
func (r *Router) messageLoop(ctx context.Context, session *LiveViewSession) {
	reason := core.TerminateNormal
	defer func() {
		if rec := recover(); rec != nil {
			logging.L(ctx).Error("live session panicked", logging.String("panic", fmt.Sprint(rec)))
			reason = core.TerminateError
		}
		r.handleDisconnect(ctx, session, reason)
	}()

	recvCh := session.Transport.Receive()
	infoCh := session.Socket.Info()

	for {
		select {
		case msg := <-recvCh:
			session.UpdateActivity()
			session.Socket.UpdateActivity()

			switch msg.Event {
			case protocol.EventHeartbeat:
				session.Socket.Reply(msg.Ref, nil)

			case protocol.EventJoin:
				r.handleJoin(ctx, session, msg)

			case protocol.EventLeave:
				return

			default:
				if !session.IsMounted() {
					r.sendError(session, msg.Ref, ErrNotJoined)
					continue
				}
				if err := r.dispatchEvent(ctx, session, msg); err != nil {
					logging.L(ctx).Warn("event failed", logging.String("event", msg.Event), logging.Err(err))
					r.sendError(session, msg.Ref, err)
					continue
				}
				r.renderAndSend(ctx, session)
			}

		case info := <-infoCh:
			if !session.IsMounted() {
				continue
			}
			ictx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentEvent)
			err := session.Component.HandleInfo(ictx, info)
			cancel()
			if err != nil {
				logging.L(ctx).Warn("info failed", logging.String("info", fmt.Sprintf("%T", info)), logging.Err(err))
				continue
			}
			r.renderAndSend(ctx, session)

		case <-session.Transport.Done():
			if r.socketManager.IsShutdown() {
				reason = core.TerminateShutdown
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleJoin mounts the component on first join and replies with the
// current render.
func (r *Router) handleJoin(ctx context.Context, session *LiveViewSession, msg protocol.Message) {
	if joinRef := msg.PayloadString("join_ref"); joinRef != "" {
		session.SetJoinRef(joinRef)
	} else {
		session.SetJoinRef(msg.Ref)
	}

	component := session.Component
	if !session.IsMounted() {
		mctx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentMount)
		err := component.Mount(mctx, session.Params, session.Session)
		cancel()
		if err != nil {
			logging.L(ctx).Error("mount failed", logging.String("component", component.Name()), logging.Err(err))
			r.sendError(session, msg.Ref, err)
			return
		}
		session.SetMounted(true)
	}

	html, err := r.render(ctx, component)
	if err != nil {
		r.sendError(session, msg.Ref, err)
		return
	}
	version, _ := session.nextRender(hashContent(html))

	session.Socket.Reply(msg.Ref, map[string]any{
		"rendered": html,
		"v":        version,
		"socket":   session.SocketID,
	})
	r.afterRender(ctx, session)
}

func (r *Router) dispatchEvent(ctx context.Context, session *LiveViewSession, msg protocol.Message) error {
	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}

	ectx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentEvent)
	defer cancel()
	return session.Component.HandleEvent(ectx, msg.Event, payload)
}

// renderAndSend pushes a full render when the HTML changed, then lets the
// component run its post-render commands.
func (r *Router) renderAndSend(ctx context.Context, session *LiveViewSession) {
	html, err := r.render(ctx, session.Component)
	if err != nil {
		logging.L(ctx).Error("render failed", logging.Err(err))
		return
	}

	if version, changed := session.nextRender(hashContent(html)); changed {
		if err := session.Socket.SendFull(version, html); err != nil {
			logging.L(ctx).Debug("diff not sent", logging.Err(err))
			return
		}
	}
	r.afterRender(ctx, session)
}

func (r *Router) render(ctx context.Context, component core.Component) (string, error) {
	renderer := component.Render(ctx)
	if renderer == nil {
		return "", ErrNilRenderer
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := renderer.Render(ctx, buf); err != nil {
		return "", fmt.Errorf("render %s: %w", component.Name(), err)
	}
	return buf.String(), nil
}

func (r *Router) afterRender(ctx context.Context, session *LiveViewSession) {
	ar, ok := session.Component.(core.AfterRenderer)
	if !ok {
		return
	}
	if err := ar.AfterRender(ctx); err != nil {
		logging.L(ctx).Debug("after render failed", logging.Err(err))
	}
}

// handleDisconnect terminates the component and forgets the session.
func (r *Router) handleDisconnect(ctx context.Context, session *LiveViewSession, reason core.TerminateReason) {
	if session.IsMounted() {
		if err := session.Component.Terminate(context.Background(), reason); err != nil {
			logging.L(ctx).Warn("terminate failed", logging.Err(err))
		}
	}

	r.sessionManager.Remove(session.ID)
	r.socketManager.Remove(session.SocketID)
	session.Socket.Close()

	logging.L(ctx).Debug("live session closed", logging.String("reason", reason.String()))
}

func (r *Router) sendError(session *LiveViewSession, ref string, err error) {
	session.Socket.Send(protocol.ErrorReply(ref, session.Topic, err.Error()))
}

// extractSession copies request cookies into the session as "cookie:<name>".
func (r *Router) extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}
	return session
}

// extractParams extracts query string parameters.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// isWebSocketRequest checks if this is a WebSocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}

func hashContent(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithLayout sets the page layout.
func WithLayout(layout Layout) RouteOption {
	return func(r *LiveRoute) {
		r.Layout = layout
	}
}

// WithRouteMiddleware adds middleware to the route.
func WithRouteMiddleware(mw ...Middleware) RouteOption {
	return func(r *LiveRoute) {
		r.Middleware = append(r.Middleware, mw...)
	}
}
