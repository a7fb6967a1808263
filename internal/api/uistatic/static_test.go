package uistatic

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFSHandlerServesFilesAndFallsBackToIndex(t *testing.T) {
	handler := FSHandler(fstest.MapFS{
		"index.html": {Data: []byte("<html>chat</html>")},
		"app.js":     {Data: []byte("console.log('hi')")},
	})

	tests := []struct {
		path string
		want string
	}{
		{path: "/", want: "<html>chat</html>"},
		{path: "/app.js", want: "console.log('hi')"},
		{path: "/sessions/abc", want: "<html>chat</html>"},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", tc.path, rr.Code)
		}
		if got := rr.Body.String(); got != tc.want {
			t.Fatalf("%s body = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestHandlerServesEmbeddedClient(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler("").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "/api/chat") {
		t.Fatal("embedded client should talk to /api/chat")
	}
}

func TestFSHandlerWithoutIndex(t *testing.T) {
	rr := httptest.NewRecorder()
	FSHandler(fstest.MapFS{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}
