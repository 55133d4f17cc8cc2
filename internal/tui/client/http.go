package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient makes REST calls to the kiosk server.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// State fetches /api/state.
func (c *HTTPClient) State(ctx context.Context) (*State, error) {
	var s State
	if err := c.do(ctx, http.MethodGet, "/api/state", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Action posts to one of the body-less endpoints, e.g. "capture/start",
// and returns the resulting state.
func (c *HTTPClient) Action(ctx context.Context, name string) (*State, error) {
	return c.postState(ctx, "/api/"+name, nil)
}

// SetFilter selects the capture filter.
func (c *HTTPClient) SetFilter(ctx context.Context, name string) (*State, error) {
	return c.postState(ctx, "/api/filter", map[string]string{"filter": name})
}

// SetTemplate selects the strip template.
func (c *HTTPClient) SetTemplate(ctx context.Context, id string) (*State, error) {
	return c.postState(ctx, "/api/edit/template", map[string]string{"id": id})
}

// SetBackground selects the strip background.
func (c *HTTPClient) SetBackground(ctx context.Context, id string) (*State, error) {
	return c.postState(ctx, "/api/edit/background", map[string]string{"id": id})
}

// SetText overrides a caption.
func (c *HTTPClient) SetText(ctx context.Context, id, value string) (*State, error) {
	return c.postState(ctx, "/api/edit/text", map[string]string{"id": id, "value": value})
}

// AddSticker places glyph at the center of the strip.
func (c *HTTPClient) AddSticker(ctx context.Context, glyph string) (*Sticker, error) {
	var st Sticker
	if err := c.do(ctx, http.MethodPost, "/api/edit/stickers", map[string]string{"glyph": glyph}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MoveSticker moves a sticker to x, y percent.
func (c *HTTPClient) MoveSticker(ctx context.Context, id string, x, y float64) (*Sticker, error) {
	var st Sticker
	path := "/api/edit/stickers/" + url.PathEscape(id) + "/move"
	if err := c.do(ctx, http.MethodPost, path, Position{X: x, Y: y}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// RemoveSticker deletes a sticker.
func (c *HTTPClient) RemoveSticker(ctx context.Context, id string) (*State, error) {
	var s State
	if err := c.do(ctx, http.MethodDelete, "/api/edit/stickers/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Export saves the strip on the server and returns its path there.
func (c *HTTPClient) Export(ctx context.Context) (string, error) {
	var out ExportedPayload
	if err := c.do(ctx, http.MethodPost, "/api/export", nil, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

// Strip streams the rendered strip PNG into w.
func (c *HTTPClient) Strip(ctx context.Context, w io.Writer) error {
	return c.download(ctx, "/api/strip.png", w)
}

// Thumbnail streams photo n, fitted into size pixels, into w.
func (c *HTTPClient) Thumbnail(ctx context.Context, n, size int, w io.Writer) error {
	return c.download(ctx, fmt.Sprintf("/api/photos/%d/thumb.png?size=%d", n, size), w)
}

func (c *HTTPClient) postState(ctx context.Context, path string, body any) (*State, error) {
	var s State
	if err := c.do(ctx, http.MethodPost, path, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) download(ctx context.Context, path string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	return resp, nil
}

// errorMessage extracts {"error": "..."} or falls back to the raw body.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
