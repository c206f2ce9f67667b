package keepalive

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleOK(t *testing.T) {
	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handleOK(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
		if rec.Body.String() != "ok" {
			t.Fatalf("%s: unexpected body %q", path, rec.Body.String())
		}
	}
}
