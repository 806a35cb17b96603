package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCheck(t *testing.T) {
	before := testutil.ToFloat64(ChecksTotal.WithLabelValues("profane"))
	ObserveCheck(true, 0.0001)
	after := testutil.ToFloat64(ChecksTotal.WithLabelValues("profane"))

	if after-before != 1 {
		t.Errorf("want profane counter to grow by 1, got %v", after-before)
	}
}

func TestObserveUpdate(t *testing.T) {
	ObserveUpdate("replace", nil, 42)
	if got := testutil.ToFloat64(Words); got != 42 {
		t.Errorf("want words gauge 42, got %v", got)
	}

	ObserveUpdate("replace", errors.New("boom"), 7)
	if got := testutil.ToFloat64(Words); got != 42 {
		t.Errorf("failed update changed words gauge to %v", got)
	}
	if got := testutil.ToFloat64(WordListUpdates.WithLabelValues("replace", "error")); got < 1 {
		t.Errorf("want error updates counted, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	ObserveCheck(false, 0.0002)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("want status code %v, got %v", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "censor_checks_total") {
		t.Error("metrics output lacks censor_checks_total")
	}
}
