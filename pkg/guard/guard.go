// Package guard rejects JSON requests whose configured text fields contain
// profanity, before they reach the wrapped handler.
package guard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// maxBodySize bounds how much of a request body is inspected.
const maxBodySize = 1 << 20

// Checker reports whether a text is profane. *censor.Censor satisfies it.
type Checker interface {
	Contains(text string) bool
}

type Config struct {
	// Paths are matched exactly against the request path.
	Paths   []string
	Fields  []string
	Methods []string
}

func DefaultConfig() Config {
	return Config{
		Paths:   []string{"/api/"},
		Fields:  []string{"message", "comment"},
		Methods: []string{http.MethodPost, http.MethodPut, http.MethodPatch},
	}
}

// Middleware returns a mux middleware checking the configured fields with c.
// Empty Config slices fall back to the defaults.
func Middleware(c Checker, cfg Config) mux.MiddlewareFunc {
	def := DefaultConfig()
	if len(cfg.Paths) == 0 {
		cfg.Paths = def.Paths
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = def.Fields
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = def.Methods
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(cfg.Paths, r.URL.Path) || !slices.Contains(cfg.Methods, r.Method) || !isJSON(r) {
				next.ServeHTTP(w, r)
				return
			}

			if field, found := inspect(r, c, cfg.Fields); found {
				log.Debugf("[guard] profanity in field %q of %s %s from %v", field, r.Method, r.URL.Path, r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{
					"error": fmt.Sprintf("Profanity detected in field '%s'.", field),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// inspect returns the first configured field holding a profane string. The body
// is restored on r so the next handler can read it. Unreadable or non-object
// bodies are passed through.
func inspect(r *http.Request, c Checker, fields []string) (string, bool) {
	if r.Body == nil {
		return "", false
	}

	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(b), r.Body), r.Body}
	if err != nil || len(b) == 0 {
		return "", false
	}

	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		log.Debugf("[guard] skipping unparsable body: %v", err)
		return "", false
	}

	for _, field := range fields {
		text, ok := data[field].(string)
		if ok && c.Contains(text) {
			return field, true
		}
	}
	return "", false
}
