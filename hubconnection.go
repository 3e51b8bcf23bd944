package signalr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/teivah/onecontext"
)

// HubConnection is the Hub Connection, component C6: it orchestrates
// negotiation (C1), transport selection and connect (C3/C3a/C4/C3b), the
// protocol handshake, the pending-invocation and handler tables, and the
// five-state lifecycle of spec §4.6. Grounded on client.go's
// Start/Stop/Invoke/Send surface and defaultHubConnection's context-driven
// abort pattern (hubconnection.go in the reference client), rewritten for a
// client-only, single-protocol scope; the dispatch loop is grounded on
// loop.go's select-over-receive/timeout/keepalive structure.
type HubConnection struct {
	baseURL  string
	rawQuery string
	cfg      connectionConfig

	info StructuredLogger
	warn StructuredLogger
	dbg  StructuredLogger

	// mu guards state, pending, handlers and connID - spec §4.6's "one
	// coarse mutex held only for short updates (no network I/O under lock)".
	mu       sync.Mutex
	state    ClientState
	pending  pendingTable
	handlers handlerTable
	nextID   uint64
	connID   string

	tr    transport
	proto *jsonHubProtocol

	closedMu  sync.Mutex
	closedFns []func(error)

	loopCancel context.CancelFunc
}

func newHubConnection(baseURL, rawQuery string, cfg connectionConfig) *HubConnection {
	info, warn, dbg := buildLoggers(cfg.logger, cfg.logLevel)
	return &HubConnection{
		baseURL:  baseURL,
		rawQuery: rawQuery,
		cfg:      cfg,
		info:     info,
		warn:     warn,
		dbg:      dbg,
		state:    Disconnected,
		pending:  newPendingTable(),
		handlers: newHandlerTable(),
	}
}

// State reports the connection's current ClientState.
func (c *HubConnection) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionID returns the id the negotiate response assigned, empty before
// a successful Start.
func (c *HubConnection) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// On registers a handler for inbound invocations targeting method. A second
// call for the same method replaces the first, mirroring the reference
// client's hub dispatch table.
func (c *HubConnection) On(method string, handler func(args []json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers.on(method, handler)
}

// Off removes a previously registered handler for method. Calling Off for a
// method with no registered handler is a no-op.
func (c *HubConnection) Off(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers.off(method)
}

// OnClosed registers a callback invoked exactly once when the connection
// tears down after having reached Connected, per spec §7's propagation
// policy. fn receives the triggering error, or nil when the server sends a
// Close frame with no error. It is not invoked after Stop.
func (c *HubConnection) OnClosed(fn func(error)) {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	c.closedFns = append(c.closedFns, fn)
}

func (c *HubConnection) invokeClosed(err error) {
	c.closedMu.Lock()
	fns := append([]func(error){}, c.closedFns...)
	c.closedMu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// Start negotiates, connects a transport, performs the hub protocol
// handshake, and - on success - enters state Connected and begins the
// inbound dispatch loop. It blocks until that sequence completes or fails;
// per spec §4.6, negotiation, transport connect and the handshake wait are
// its only suspension points.
func (c *HubConnection) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		state := c.state
		c.mu.Unlock()
		return &InvalidStateForStartError{State: state}
	}
	c.state = Connecting
	c.mu.Unlock()

	attempt := newAttemptID()
	info := log.WithPrefix(c.info, "attempt", attempt)
	warn := log.WithPrefix(c.warn, "attempt", attempt)
	dbg := log.WithPrefix(c.dbg, "attempt", attempt)
	_ = info.Log(evt, "start")

	resp, effectiveBase, effectiveHeaders, err := negotiate(ctx, c.cfg.httpClient(), c.baseURL, c.rawQuery, c.cfg.requestHeaders())
	if err != nil {
		_ = info.Log(evt, "negotiate", "error", err)
		c.failStart()
		return err
	}

	tr, err := c.dialTransport(ctx, resp, effectiveBase, effectiveHeaders)
	if err != nil {
		_ = info.Log(evt, "connect", "error", err)
		c.failStart()
		return err
	}

	mergedCtx, cancel := onecontext.Merge(ctx, tr.context())

	proto := newJSONHubProtocol()
	proto.setDebugLogger(dbg)

	if err := proto.writeTo(protoWriter{mergedCtx, tr}, proto.encodeHandshake()); err != nil {
		cancel()
		_ = tr.close()
		c.failStart()
		return &HandshakeProtocolError{Msg: err.Error()}
	}

	c.mu.Lock()
	c.state = HandshakeSent
	c.mu.Unlock()

	leftover, err := c.awaitHandshake(mergedCtx, tr, proto)
	if err != nil {
		cancel()
		_ = tr.close()
		c.failStart()
		_ = info.Log(evt, "handshake", "error", err)
		return err
	}

	c.mu.Lock()
	c.connID = resp.connectionID
	c.tr = tr
	c.proto = proto
	c.state = Connected
	c.loopCancel = cancel
	c.info = log.WithPrefix(info, "connection", c.connID)
	c.warn = log.WithPrefix(warn, "connection", c.connID)
	c.dbg = log.WithPrefix(dbg, "connection", c.connID)
	c.mu.Unlock()

	go c.dispatchLoop(mergedCtx, leftover)
	return nil
}

func (c *HubConnection) failStart() {
	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
}

// dialTransport tries cfg.transports in order, connecting the first one
// both the caller allows and the negotiate response advertises, per C3a.
func (c *HubConnection) dialTransport(ctx context.Context, resp *negotiateResponse, base string, headers http.Header) (transport, error) {
	var lastErr error
	for _, candidate := range c.cfg.transports {
		if !resp.hasTransport(candidate) {
			continue
		}
		switch candidate {
		case TransportWebSockets:
			wsURL, err := connectURL(base, c.rawQuery)
			if err != nil {
				return nil, err
			}
			wsURL, err = withConnectionID(wsURL, resp.connectionID)
			if err != nil {
				return nil, err
			}
			tr := newWebSocketTransport(wsURL, headers)
			if err := tr.connect(ctx); err != nil {
				lastErr = err
				continue
			}
			return tr, nil
		case TransportServerSentEvents:
			getURL, err := sseURL(base, c.rawQuery)
			if err != nil {
				return nil, err
			}
			getURL, err = withConnectionID(getURL, resp.connectionID)
			if err != nil {
				return nil, err
			}
			tr := newSSETransport(getURL, c.cfg.httpClient(), headers)
			if err := tr.connect(ctx); err != nil {
				lastErr = err
				continue
			}
			return tr, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &TransportStartFailedError{Cause: fmt.Errorf("no usable transport among %v", c.cfg.transports)}
}

// awaitHandshake blocks for the first inbound record, bounded by
// cfg.handshakeTimeout, and validates it is an empty, error-free handshake
// response (spec §4.6). The handshake response is not a hub message, so it
// is parsed directly off the raw buffer rather than through
// jsonHubProtocol.feed; any bytes received after the handshake's own 0x1E
// are fed through proto and returned so dispatchLoop doesn't lose a message
// that arrived piggybacked in the same read.
func (c *HubConnection) awaitHandshake(ctx context.Context, tr transport, proto *jsonHubProtocol) ([]hubMessage, error) {
	if c.cfg.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.handshakeTimeout)
		defer cancel()
	}
	var buf bytes.Buffer
	for {
		data, err := tr.receive(ctx)
		if err != nil {
			return nil, &HandshakeProtocolError{Msg: err.Error()}
		}
		buf.Write(data)
		raw := buf.Bytes()
		idx := bytes.IndexByte(raw, recordSeparator)
		if idx < 0 {
			continue
		}
		record := raw[:idx]
		rest := raw[idx+1:]

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(record, &fields); err != nil {
			return nil, &HandshakeProtocolError{Msg: err.Error()}
		}
		if fields == nil {
			return nil, &HandshakeProtocolError{Msg: "handshake response is not a JSON object"}
		}
		if len(fields) > 0 {
			var hr handshakeResponseWire
			if _, ok := fields["error"]; !ok || json.Unmarshal(record, &hr) != nil || hr.Error == "" {
				return nil, &HandshakeProtocolError{Msg: "unexpected handshake response: " + string(record)}
			}
			return nil, &HandshakeProtocolError{Msg: hr.Error}
		}
		if len(rest) == 0 {
			return nil, nil
		}
		return proto.feed(rest)
	}
}

// protoWriter adapts a transport's send to io.Writer so jsonHubProtocol's
// writeTo helper (shared with the reference client's WriteMessage call
// sites) can drive it.
type protoWriter struct {
	ctx context.Context
	tr  transport
}

func (w protoWriter) Write(p []byte) (int, error) {
	if err := w.tr.send(w.ctx, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Stop tears the connection down. Idempotent: calling it from Disconnected
// resolves immediately. On success every entry in the pending-invocation
// table is settled with ConnectionClosedError, and the closed-callback is
// NOT invoked, since the teardown was requested rather than encountered
// (spec §4.4 scenario 5, "Stop during pending invocation").
func (c *HubConnection) Stop() error {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = Disconnecting
	cancel := c.loopCancel
	tr := c.tr
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		_ = tr.close()
	}

	c.mu.Lock()
	c.state = Disconnected
	c.pending.failAll(&ConnectionClosedError{})
	c.mu.Unlock()
	return nil
}

// Invoke calls method on the server with args and blocks for its Completion
// frame, per spec §4.3. Requires state Connected.
func (c *HubConnection) Invoke(ctx context.Context, method string, args ...json.RawMessage) (json.RawMessage, error) {
	c.mu.Lock()
	if c.state != Connected {
		state := c.state
		c.mu.Unlock()
		return nil, &InvalidStateForStartError{State: state}
	}
	id := strconv.FormatUint(c.nextID, 10)
	c.nextID++
	sink := c.pending.register(id)
	data, err := c.proto.encodeInvocation(id, method, args)
	tr := c.tr
	c.mu.Unlock()

	if err != nil {
		c.mu.Lock()
		c.pending.complete(id, InvokeResult{Error: err})
		c.mu.Unlock()
		return nil, err
	}
	if sendErr := tr.send(ctx, data); sendErr != nil {
		wrapped := &TransportSendFailedError{Cause: sendErr}
		c.mu.Lock()
		c.pending.complete(id, InvokeResult{Error: wrapped})
		c.mu.Unlock()
		return nil, wrapped
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-sink.ch:
		return result.Value, result.Error
	}
}

// Send invokes method on the server without awaiting a result (a one-way
// Invocation record with no invocationId, per spec §4.5). Requires state
// Connected.
func (c *HubConnection) Send(ctx context.Context, method string, args ...json.RawMessage) error {
	c.mu.Lock()
	if c.state != Connected {
		state := c.state
		c.mu.Unlock()
		return &InvalidStateForStartError{State: state}
	}
	data, err := c.proto.encodeInvocation("", method, args)
	tr := c.tr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if err := tr.send(ctx, data); err != nil {
		return &TransportSendFailedError{Cause: err}
	}
	return nil
}

// dispatchLoop is the inbound side of the connection: it reads frames off
// the transport, feeds them through the protocol codec, and dispatches
// decoded hubMessages, all while running the C7 keep-alive and inbound-
// silence timers. Grounded on loop.go's Run(), rewritten around this
// client's transport/receive shape instead of a server Connection.
func (c *HubConnection) dispatchLoop(ctx context.Context, seed []hubMessage) {
	// watch enforces the C7 inbound-silence bound: every received frame
	// re-arms it via ChangeGuard (connectionwatchdog.go).
	watch := newSilenceWatch()

	// end tears the connection down exactly once, however the loop below
	// exits: ctx cancellation, a transport read error, the inbound-silence
	// deadline, or a Close frame (spec §4.6's Connected -> Disconnecting
	// transition, then Disconnected once the transport is closed).
	end := func(err error) {
		c.mu.Lock()
		wasConnected := c.state == Connected
		if wasConnected {
			c.state = Disconnecting
		}
		cancel := c.loopCancel
		tr := c.tr
		c.mu.Unlock()

		watch.Stop()
		if cancel != nil {
			cancel()
		}
		if tr != nil {
			_ = tr.close()
		}

		c.mu.Lock()
		if c.state == Disconnecting {
			c.state = Disconnected
		}
		c.pending.failAll(&ConnectionClosedError{Cause: err})
		c.mu.Unlock()
		if wasConnected {
			c.invokeClosed(err)
		}
	}

	for _, m := range seed {
		if closed, closeErr := c.handleMessage(m); closed {
			end(closeErr)
			return
		}
	}

	silenceCtx := watch.ChangeGuard(ctx, c.cfg.timeoutInterval)

	keepAlive := time.NewTimer(c.cfg.keepAliveInterval)
	defer keepAlive.Stop()

	type frame struct {
		data []byte
		err  error
	}
	frames := make(chan frame, 1)
	go func() {
		for {
			data, err := c.tr.receive(ctx)
			frames <- frame{data, err}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			end(ctx.Err())
			return
		case f := <-frames:
			if f.err != nil {
				end(f.err)
				return
			}
			silenceCtx = watch.ChangeGuard(ctx, c.cfg.timeoutInterval)
			msgs, err := c.proto.feed(f.data)
			for err != nil {
				// The malformed record has already been consumed; log it and
				// keep decoding whatever complete records follow it.
				_ = c.warn.Log(evt, "feed", "error", err)
				var more []hubMessage
				more, err = c.proto.feed(nil)
				msgs = append(msgs, more...)
			}
			for _, m := range msgs {
				if closed, closeErr := c.handleMessage(m); closed {
					end(closeErr)
					return
				}
			}
		case <-keepAlive.C:
			resetTimer(keepAlive, c.cfg.keepAliveInterval)
			if err := c.tr.send(ctx, c.proto.encodePing()); err != nil {
				_ = c.info.Log(evt, msgSend, "error", err)
			}
		case <-silenceCtx.Done():
			end(&TransportClosedError{Cause: fmt.Errorf("no inbound data for %v", c.cfg.timeoutInterval)})
			return
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// handleMessage implements spec §4.6's inbound dispatch table. It reports
// whether m requires the dispatch loop to stop (only a Close frame does),
// and the error the closed-callback and pending invocations should carry.
func (c *HubConnection) handleMessage(m hubMessage) (closed bool, err error) {
	switch m.Type {
	case msgTypeInvocation:
		c.mu.Lock()
		handler, ok := c.handlers.lookup(m.Target)
		c.mu.Unlock()
		if !ok {
			_ = c.warn.Log(evt, "dispatch", react, "no handler", "target", m.Target)
			return false, nil
		}
		_ = c.dbg.Log(evt, msgRecv, msg, m.Target)
		handler(m.Arguments)
	case msgTypeCompletion:
		c.handleCompletion(m)
	case msgTypePing:
		// no-op; already reset the silence timer in dispatchLoop.
	case msgTypeClose:
		_ = c.info.Log(evt, msgRecv, "close", m.Error)
		if m.HasError {
			return true, &CloseFrameError{Msg: m.Error}
		}
		return true, nil
	case msgTypeStreamItem:
		// reserved, per spec §3 and Non-goals.
	case msgTypeStreamInvocation, msgTypeCancelInvocation:
		// outbound-only: logged, not fatal.
		_ = c.warn.Log(evt, "dispatch", "error", &UnexpectedInboundMessageError{Type: m.Type})
	default:
		_ = c.warn.Log(evt, "dispatch", react, "unknown message type", "type", m.Type)
	}
	return false, nil
}

func (c *HubConnection) handleCompletion(m hubMessage) {
	if !m.HasID {
		_ = c.warn.Log(evt, "completion", "error", &InvalidCompletionError{Msg: "missing invocationId"})
		return
	}
	var result InvokeResult
	if m.HasError && len(m.Result) > 0 {
		result.Error = &InvalidCompletionError{Msg: "completion carries both result and error"}
	} else if m.HasError {
		result.Error = &InvocationFailedError{Msg: m.Error}
	} else {
		result.Value = m.Result
	}

	c.mu.Lock()
	found := c.pending.complete(m.InvocationID, result)
	c.mu.Unlock()
	if !found {
		_ = c.warn.Log(evt, "completion", react, "orphan completion", "invocationId", m.InvocationID)
	}
}
