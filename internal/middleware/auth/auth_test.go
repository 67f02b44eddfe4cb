package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	a := New(map[string]string{"tok-daniel": "daniel", "tok-ben": "benjamin"})

	var actor string
	h := a.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
	}))

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantActor string
	}{
		{"valid token", "Bearer tok-ben", http.StatusOK, "benjamin"},
		{"lower-case scheme", "bearer tok-daniel", http.StatusOK, "daniel"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"basic auth", "Basic dG9rLWJlbg==", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor = ""
			req := httptest.NewRequest(http.MethodGet, "/api/partners", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if actor != tt.wantActor {
				t.Fatalf("actor = %q, want %q", actor, tt.wantActor)
			}
		})
	}
}

func TestEmptyTableRejects(t *testing.T) {
	a := New(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	if _, ok := a.Authenticate(req); ok {
		t.Fatal("empty token table must reject")
	}
}
