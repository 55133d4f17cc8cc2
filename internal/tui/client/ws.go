package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// WSClient follows the kiosk server's event stream.
type WSClient struct {
	url    string
	token  string
	log    *zap.Logger
	dialer *websocket.Dialer

	// Reconnect makes Watch redial with backoff after the connection drops.
	Reconnect bool
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url, token string, log *zap.Logger) *WSClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSClient{url: url, token: token, log: log.Named("ws"), dialer: websocket.DefaultDialer}
}

// WSURL derives the event stream URL from an HTTP base URL.
func WSURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// Watch delivers every message to fn until ctx is cancelled. Without
// Reconnect it returns the error that ended the first connection.
func (c *WSClient) Watch(ctx context.Context, fn func(WSMessage)) error {
	delay := reconnectBaseDelay
	for {
		err := c.watchOnce(ctx, fn, &delay)
		if ctx.Err() != nil {
			return nil
		}
		if !c.Reconnect {
			return err
		}
		c.log.Warn("ws disconnected", zap.Error(err), zap.Duration("retry", delay))
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		delay = min(delay*2, reconnectMaxDelay)
	}
}

func (c *WSClient) watchOnce(ctx context.Context, fn func(WSMessage), delay *time.Duration) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	*delay = reconnectBaseDelay
	c.log.Debug("ws connected", zap.String("url", c.url))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(ctx, conn, done)
	}()
	defer func() {
		close(done)
		wg.Wait()
		conn.Close()
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug("skipping malformed message", zap.Error(err))
			continue
		}
		fn(msg)
	}
}

// pingLoop keeps conn alive and closes it when ctx is cancelled, which
// unblocks the reader.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
