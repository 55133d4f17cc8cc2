package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/session"
)

// ErrTooManyConnections is returned by AddClient when the connection limit
// is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

const writeWait = 10 * time.Second

// ClientObserver is notified as clients come and go.
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
	ClientDropped()
}

type nopObserver struct{}

func (nopObserver) ClientConnected()    {}
func (nopObserver) ClientDisconnected() {}
func (nopObserver) ClientDropped()      {}

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			// Drain until RemoveClient's close ends the range.
			for range c.send {
			}
			return
		}
	}
}

// Broadcaster fans booth state out to WebSocket clients. Discrete events
// go out immediately; plain updates are coalesced into one snapshot per
// throttle window, and a full snapshot is resent periodically.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	store    *session.Store
	throttle time.Duration
	maxConns int
	obs      ClientObserver
	log      *zap.Logger

	snapshotTicker *time.Ticker
	stop           chan struct{}
	stopOnce       sync.Once

	flushMu    sync.Mutex
	flushTimer *time.Timer
}

// NewBroadcaster starts the periodic snapshot loop. maxConns of zero means
// no limit. Stop must be called to release the loop.
func NewBroadcaster(store *session.Store, throttle, snapshotInterval time.Duration, maxConns int, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Broadcaster{
		clients:        make(map[*client]bool),
		store:          store,
		throttle:       throttle,
		maxConns:       maxConns,
		obs:            nopObserver{},
		log:            log.Named("ws"),
		snapshotTicker: time.NewTicker(snapshotInterval),
		stop:           make(chan struct{}),
	}
	go b.snapshotLoop()
	return b
}

// SetObserver installs o. Must be called before clients connect.
func (b *Broadcaster) SetObserver(o ClientObserver) {
	if o != nil {
		b.obs = o
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	c := &client{conn: conn, b: b, send: make(chan []byte, 64)}

	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	b.clients[c] = true
	b.mu.Unlock()
	b.obs.ClientConnected()

	if data, err := json.Marshal(b.snapshot()); err == nil {
		c.send <- data
	}
	go c.writePump()
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
	if ok {
		b.obs.ClientDisconnected()
	}
}

// Publish forwards a session event. It never blocks, so it is safe to call
// from the timeline goroutine.
func (b *Broadcaster) Publish(ev session.Event) {
	if msg, ok := messageFor(ev); ok {
		b.broadcast(msg)
	}
	b.queueSnapshot()
}

func (b *Broadcaster) queueSnapshot() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	b.flushTimer = nil
	b.flushMu.Unlock()

	select {
	case <-b.stop:
		return
	default:
	}
	b.broadcast(b.snapshot())
}

func (b *Broadcaster) snapshot() WSMessage {
	return WSMessage{Type: MsgSnapshot, Payload: SnapshotPayload{State: b.store.Get()}}
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.stop:
			return
		case <-b.snapshotTicker.C:
			b.broadcast(b.snapshot())
		}
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("broadcast marshal failed", zap.Error(err), zap.String("type", string(msg.Type)))
		return
	}

	b.mu.RLock()
	var slow []*client
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.log.Warn("ws client too slow, disconnecting", zap.String("remote", c.conn.RemoteAddr().String()))
		b.obs.ClientDropped()
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop halts the snapshot loop and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		b.snapshotTicker.Stop()
		b.flushMu.Lock()
		if b.flushTimer != nil {
			b.flushTimer.Stop()
			b.flushTimer = nil
		}
		b.flushMu.Unlock()

		b.mu.Lock()
		clients := b.clients
		b.clients = make(map[*client]bool)
		b.mu.Unlock()
		for c := range clients {
			close(c.send)
			b.obs.ClientDisconnected()
		}
	})
}
