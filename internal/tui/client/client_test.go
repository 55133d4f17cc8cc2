package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

func newAPI(t *testing.T, status int, response string) (*HTTPClient, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recorded{method: r.Method, path: r.URL.RequestURI(), auth: r.Header.Get("Authorization"), body: string(body)}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL+"/", "secret")
	c.client.Transport = &http.Transport{DisableKeepAlives: true}
	return c, rec
}

func TestState(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, `{"phase":"capturing","cameraLive":true,"capture":{"maxPhotos":4,"photos":[{"id":"a","filter":"sepia"}]}}`)
	s, err := c.State(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "capturing", s.Phase)
	assert.True(t, s.CameraLive)
	require.Len(t, s.Capture.Photos, 1)
	assert.Equal(t, "sepia", s.Capture.Photos[0].Filter)
	assert.Equal(t, "GET", rec.method)
	assert.Equal(t, "/api/state", rec.path)
	assert.Equal(t, "Bearer secret", rec.auth)
}

func TestRequests(t *testing.T) {
	tests := []struct {
		name   string
		call   func(context.Context, *HTTPClient) error
		method string
		path   string
		body   string
	}{
		{
			name:   "action",
			call:   func(ctx context.Context, c *HTTPClient) error { _, err := c.Action(ctx, "capture/start"); return err },
			method: "POST", path: "/api/capture/start",
		},
		{
			name:   "filter",
			call:   func(ctx context.Context, c *HTTPClient) error { _, err := c.SetFilter(ctx, "vintage"); return err },
			method: "POST", path: "/api/filter", body: `{"filter":"vintage"}`,
		},
		{
			name:   "text",
			call:   func(ctx context.Context, c *HTTPClient) error { _, err := c.SetText(ctx, "title", "hi"); return err },
			method: "POST", path: "/api/edit/text", body: `{"id":"title","value":"hi"}`,
		},
		{
			name: "move",
			call: func(ctx context.Context, c *HTTPClient) error {
				_, err := c.MoveSticker(ctx, "a/b", 10, 20)
				return err
			},
			method: "POST", path: "/api/edit/stickers/a%2Fb/move", body: `{"x":10,"y":20}`,
		},
		{
			name:   "remove",
			call:   func(ctx context.Context, c *HTTPClient) error { _, err := c.RemoveSticker(ctx, "s1"); return err },
			method: "DELETE", path: "/api/edit/stickers/s1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newAPI(t, http.StatusOK, `{}`)
			require.NoError(t, tt.call(t.Context(), c))
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.body)
			} else {
				assert.Empty(t, rec.body)
			}
		})
	}
}

func TestExport(t *testing.T) {
	c, rec := newAPI(t, http.StatusCreated, `{"path":"/srv/strips/photobooth-1.png"}`)
	path, err := c.Export(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "/srv/strips/photobooth-1.png", path)
	assert.Equal(t, "/api/export", rec.path)
}

func TestDownloads(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, "PNGDATA")
	var buf bytes.Buffer
	require.NoError(t, c.Strip(t.Context(), &buf))
	assert.Equal(t, "PNGDATA", buf.String())
	assert.Equal(t, "/api/strip.png", rec.path)

	buf.Reset()
	require.NoError(t, c.Thumbnail(t.Context(), 2, 64, &buf))
	assert.Equal(t, "/api/photos/2/thumb.png?size=64", rec.path)
}

func TestAPIError(t *testing.T) {
	c, _ := newAPI(t, http.StatusConflict, `{"error":"wrong phase"}`)
	_, err := c.Action(t.Context(), "capture/done")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "wrong phase", apiErr.Message)
	assert.Equal(t, "POST /api/capture/done: 409 wrong phase", err.Error())

	c, _ = newAPI(t, http.StatusBadGateway, "upstream down\n")
	_, err = c.State(t.Context())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestWSURL(t *testing.T) {
	tests := map[string]string{
		"http://127.0.0.1:8080":  "ws://127.0.0.1:8080/ws",
		"https://booth.example/": "wss://booth.example/ws",
		"ws://host":              "ws://host/ws",
	}
	for in, want := range tests {
		assert.Equal(t, want, WSURL(in), in)
	}
}

func wsServer(t *testing.T, msgs ...string) (*httptest.Server, chan string) {
	t.Helper()
	auth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, auth
}

func TestWatch(t *testing.T) {
	srv, auth := wsServer(t,
		`{"type":"phase","payload":{"phase":"capturing"}}`,
		`not json`,
		`{"type":"exported","payload":{"path":"/tmp/a.png"}}`,
	)
	c := NewWSClient(WSURL(srv.URL), "secret", nil)

	var got []WSMessage
	err := c.Watch(t.Context(), func(m WSMessage) { got = append(got, m) })
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	assert.Equal(t, "Bearer secret", <-auth)

	require.Len(t, got, 2)
	assert.Equal(t, MsgPhase, got[0].Type)
	assert.Equal(t, "exported: /tmp/a.png", Describe(got[1]))
}

func TestWatchStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := NewWSClient(WSURL(srv.URL), "", nil)
	c.Reconnect = true
	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- c.Watch(ctx, func(WSMessage) {}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestDescribe(t *testing.T) {
	payload := func(v any) json.RawMessage {
		data, _ := json.Marshal(v)
		return data
	}
	tests := []struct {
		msg  WSMessage
		want string
	}{
		{WSMessage{Type: MsgSnapshot, Payload: payload(SnapshotPayload{State: &State{Phase: "editing", Capture: Capture{MaxPhotos: 4, Photos: []*Photo{{}, {}}}}})}, "snapshot: editing, 2/4 photos"},
		{WSMessage{Type: MsgCountdown, Payload: payload(CountdownPayload{Countdown: 3, Shot: 0, MaxPhotos: 4})}, "countdown: 3 (shot 1 of 4)"},
		{WSMessage{Type: MsgCaptured, Payload: payload(CapturedPayload{Photo: &Photo{Filter: "sepia"}, Index: 1, Count: 2})}, "captured: photo 2 (sepia)"},
		{WSMessage{Type: MsgPhase, Payload: payload(PhasePayload{Phase: "capturing"})}, "phase: capturing"},
		{WSMessage{Type: "other", Payload: json.RawMessage(`{}`)}, "other: {}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.msg))
	}
}
