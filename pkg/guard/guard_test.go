package guard

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func newTestRouter(t *testing.T, cfg Config) (*mux.Router, *string) {
	t.Helper()

	ccfg := censor.DefaultConfig()
	ccfg.Words = []string{"badword", "abuse"}
	c, err := censor.New(ccfg)
	if err != nil {
		t.Fatalf("failed to create censor: %v", err)
	}

	var gotBody string
	r := mux.NewRouter()
	r.Use(Middleware(c, cfg))
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	})
	return r, &gotBody
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		statusWant  int
		errWant     string
	}{
		{
			name: "clean message", method: http.MethodPost, path: "/api/",
			contentType: "application/json", body: `{"message":"hello there"}`,
			statusWant: http.StatusOK,
		},
		{
			name: "profane message", method: http.MethodPost, path: "/api/",
			contentType: "application/json", body: `{"message":"you b@dw0rd"}`,
			statusWant: http.StatusBadRequest, errWant: "Profanity detected in field 'message'.",
		},
		{
			name: "profane comment", method: http.MethodPatch, path: "/api/",
			contentType: "application/json; charset=utf-8", body: `{"message":"fine","comment":"a b u s e"}`,
			statusWant: http.StatusBadRequest, errWant: "Profanity detected in field 'comment'.",
		},
		{
			name: "first field wins", method: http.MethodPut, path: "/api/",
			contentType: "application/json", body: `{"comment":"abuse","message":"badword"}`,
			statusWant: http.StatusBadRequest, errWant: "Profanity detected in field 'message'.",
		},
		{
			name: "non-string field", method: http.MethodPost, path: "/api/",
			contentType: "application/json", body: `{"message":["badword"]}`,
			statusWant: http.StatusOK,
		},
		{
			name: "unchecked field", method: http.MethodPost, path: "/api/",
			contentType: "application/json", body: `{"title":"badword"}`,
			statusWant: http.StatusOK,
		},
		{
			name: "other path", method: http.MethodPost, path: "/api/comments",
			contentType: "application/json", body: `{"message":"badword"}`,
			statusWant: http.StatusOK,
		},
		{
			name: "GET not checked", method: http.MethodGet, path: "/api/",
			contentType: "application/json", body: `{"message":"badword"}`,
			statusWant: http.StatusOK,
		},
		{
			name: "not json", method: http.MethodPost, path: "/api/",
			contentType: "text/plain", body: `{"message":"badword"}`,
			statusWant: http.StatusOK,
		},
		{
			name: "malformed json", method: http.MethodPost, path: "/api/",
			contentType: "application/json", body: `{"message":"badword"`,
			statusWant: http.StatusOK,
		},
		{
			name: "json array", method: http.MethodPost, path: "/api/",
			contentType: "application/json", body: `["badword"]`,
			statusWant: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, gotBody := newTestRouter(t, Config{})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.statusWant {
				t.Fatalf("want status code %v, got status code %v", tt.statusWant, rr.Code)
			}
			if tt.errWant != "" {
				if !strings.Contains(rr.Body.String(), tt.errWant) {
					t.Errorf("want error %q in body, got %q", tt.errWant, rr.Body.String())
				}
				return
			}
			if *gotBody != tt.body {
				t.Errorf("want handler to receive body %q, got %q", tt.body, *gotBody)
			}
		})
	}
}

func TestMiddleware_CustomConfig(t *testing.T) {
	r, _ := newTestRouter(t, Config{Paths: []string{"/chat"}, Fields: []string{"text"}})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"text":"badword"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(`{"message":"badword"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("want default path unchecked with custom paths, got status code %v", rr.Code)
	}
}
