package client

import (
	"context"
	"log"
	"sync"
	"time"

	"chatwire/pkg/chat"

	"github.com/gorilla/websocket"
)

type ConnState int

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

// Identity is what the client presents to the relay: the authenticated user
// plus the bearer credential used for the websocket upgrade.
type Identity struct {
	UserID   string
	Username string
	Token    string
}

type Handler func(ev chat.Event)

const (
	reconnectInitialBackoff = 500 * time.Millisecond
	reconnectMaxBackoff     = 15 * time.Second
)

// Conn owns the single long-lived websocket connection of a client process.
// It is created at one defined point, injected into the components that need
// it, and torn down with Close; nothing holds it as module-level state.
//
// Emits issued before the relay acks setup with a connected event are queued
// and flushed in order once the ack arrives, never dropped. On a transport
// drop the Conn redials with backoff, re-issues setup and invokes the
// rejoin hook so room membership is re-established server-side.
type Conn struct {
	endpoint string
	identity Identity
	dialer   *websocket.Dialer

	// wmu serializes writes to the websocket.
	wmu sync.Mutex

	mu      sync.Mutex
	ws      *websocket.Conn
	state   ConnState
	ready   bool
	readyCh chan struct{}
	pending []chat.Event
	subs    map[string]map[int]Handler
	nextSub int
	rejoin  func()
	onLost  func(error)
	closing bool
}

// Dial opens the connection, sends setup, and starts the event loop. The
// relay's connected ack arrives asynchronously; use WaitConnected or rely on
// the pre-ack send queue.
func Dial(endpoint string, identity Identity) (*Conn, error) {
	c := &Conn{
		endpoint: endpoint,
		identity: identity,
		dialer:   websocket.DefaultDialer,
		state:    StateConnecting,
		readyCh:  make(chan struct{}),
		subs:     make(map[string]map[int]Handler),
	}

	ws, err := c.dial()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.ws = ws
	c.state = StateOpen
	c.mu.Unlock()

	if err := c.sendSetup(ws); err != nil {
		ws.Close()
		return nil, err
	}

	go c.readLoop()

	return c, nil
}

func (c *Conn) dial() (*websocket.Conn, error) {
	ws, _, err := c.dialer.Dial(c.endpoint+"?token="+c.identity.Token, nil)
	return ws, err
}

func (c *Conn) sendSetup(ws *websocket.Conn) error {
	ev, err := chat.NewEvent(chat.EventSetup, chat.SetupPayload{
		UserID:   c.identity.UserID,
		Username: c.identity.Username,
	})
	if err != nil {
		return err
	}
	return c.write(ws, ev)
}

func (c *Conn) write(ws *websocket.Conn, ev chat.Event) error {
	frame, err := ev.Encode()
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return ws.WriteMessage(websocket.TextMessage, frame)
}

// Emit sends an event to the relay. Before the connected ack the event is
// queued client-side instead of being sent into a not-yet-ready relay.
func (c *Conn) Emit(event string, payload any) error {
	ev, err := chat.NewEvent(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.ready {
		c.pending = append(c.pending, ev)
		c.mu.Unlock()
		return nil
	}
	ws := c.ws
	c.mu.Unlock()

	return c.write(ws, ev)
}

// On registers a handler for an event and returns its unsubscribe function.
// Handlers run sequentially on the connection's event loop; registration is
// meant to happen once per connection lifetime.
func (c *Conn) On(event string, handler Handler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[event] == nil {
		c.subs[event] = make(map[int]Handler)
	}
	id := c.nextSub
	c.nextSub++
	c.subs[event][id] = handler

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[event], id)
	}
}

// OnRejoin sets the hook invoked after every connected ack, used to re-join
// previously joined rooms (the relay forgets membership across drops).
func (c *Conn) OnRejoin(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejoin = fn
}

// OnConnectionLost sets the hook invoked when the transport drops and a
// reconnect cycle begins.
func (c *Conn) OnConnectionLost(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLost = fn
}

func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitConnected blocks until the relay has acked setup.
func (c *Conn) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	if c.closing {
		c.mu.Unlock()
		return ErrClosed
	}
	ch := c.readyCh
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.state = StateClosed
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		return ws.Close()
	}
	return nil
}

func (c *Conn) readLoop() {
	for {
		c.mu.Lock()
		ws := c.ws
		closing := c.closing
		c.mu.Unlock()
		if closing || ws == nil {
			return
		}

		_, frame, err := ws.ReadMessage()
		if err != nil {
			if c.isClosing() {
				return
			}
			c.mu.Lock()
			onLost := c.onLost
			c.mu.Unlock()
			if onLost != nil {
				onLost(ErrConnectionLost)
			}
			if err := c.reconnect(); err != nil {
				return
			}
			continue
		}

		ev, err := chat.DecodeEvent(frame)
		if err != nil {
			log.Printf("client: dropping malformed frame: %v", err)
			continue
		}

		if ev.Event == chat.EventConnected {
			c.handleConnected()
		}

		c.dispatch(ev)
	}
}

// handleConnected marks the connection ready, re-joins rooms and flushes the
// pre-ack queue in order.
func (c *Conn) handleConnected() {
	c.mu.Lock()
	if !c.ready {
		c.ready = true
		close(c.readyCh)
	}
	pending := c.pending
	c.pending = nil
	rejoin := c.rejoin
	ws := c.ws
	c.mu.Unlock()

	if rejoin != nil {
		rejoin()
	}

	for i, ev := range pending {
		if err := c.write(ws, ev); err != nil {
			log.Printf("client: failed to flush queued event %q: %v", ev.Event, err)
			// Put the unsent tail back in front of anything queued since, so
			// the next connected ack retries it.
			c.mu.Lock()
			c.pending = append(append([]chat.Event(nil), pending[i:]...), c.pending...)
			c.mu.Unlock()
			return
		}
	}
}

func (c *Conn) dispatch(ev chat.Event) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[ev.Event]))
	for _, h := range c.subs[ev.Event] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	// Sequential, run-to-completion: all client-side state updates happen on
	// this single goroutine.
	for _, h := range handlers {
		h(ev)
	}
}

func (c *Conn) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

// reconnect redials with exponential backoff and re-issues setup. Returns
// only once a new transport is live, or with ErrClosed after Close.
func (c *Conn) reconnect() error {
	c.mu.Lock()
	c.ready = false
	c.readyCh = make(chan struct{})
	c.state = StateConnecting
	old := c.ws
	c.ws = nil
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}

	backoff := reconnectInitialBackoff
	for {
		if c.isClosing() {
			return ErrClosed
		}

		ws, err := c.dial()
		if err != nil {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > reconnectMaxBackoff {
				backoff = reconnectMaxBackoff
			}
			continue
		}

		c.mu.Lock()
		if c.closing {
			c.mu.Unlock()
			ws.Close()
			return ErrClosed
		}
		c.ws = ws
		c.state = StateOpen
		c.mu.Unlock()

		if err := c.sendSetup(ws); err != nil {
			ws.Close()
			continue
		}
		return nil
	}
}
