//go:build !embed

package frontend

import "net/http"

// Handler returns nil when the binary is built without -tags embed; the
// server then falls back to the static directory on disk.
func Handler() http.Handler { return nil }
