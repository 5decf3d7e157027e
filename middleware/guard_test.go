package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cwhitmore/jwtguard"
)

func newEngine(t *testing.T, retriever jwtguard.UserRetriever) *jwtguard.Engine {
	t.Helper()

	engine, err := jwtguard.New().
		WithSecret([]byte("middleware-secret-0123456789abcd")).
		WithUserRetriever(retriever).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func echoSubject(_ context.Context, subject string) (any, error) {
	return subject, nil
}

func guardedServer(t *testing.T, engine *jwtguard.Engine, handler http.Handler) http.Handler {
	t.Helper()
	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	return Guard(engine)(handler)
}

func TestGuardRejectsWithoutCredential(t *testing.T) {
	engine := newEngine(t, jwtguard.UserRetrieverFunc(echoSubject))
	srv := guardedServer(t, engine, nil)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGuardDoesNotLeakRejectionCause(t *testing.T) {
	engine := newEngine(t, jwtguard.UserRetrieverFunc(echoSubject))
	srv := guardedServer(t, engine, nil)

	requests := []func(r *http.Request){
		func(r *http.Request) {},
		func(r *http.Request) { r.Header.Set("Authorization", "Token abc") },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
	}

	var bodies []string
	for _, mutate := range requests {
		r := httptest.NewRequest(http.MethodGet, "/resource", nil)
		mutate(r)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		body, _ := io.ReadAll(w.Result().Body)
		bodies = append(bodies, string(body))
	}

	// Every rejection reads identically from the outside.
	for _, body := range bodies[1:] {
		if body != bodies[0] {
			t.Fatalf("rejection bodies differ: %q vs %q", bodies[0], body)
		}
	}
}

func TestGuardPassesAuthenticatedRequest(t *testing.T) {
	engine := newEngine(t, jwtguard.UserRetrieverFunc(echoSubject))

	var gotUser any
	var gotSub string
	srv := guardedServer(t, engine, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		if claims, ok := TokenFromContext(r.Context()); ok {
			gotSub = claims.Sub
		}
		w.WriteHeader(http.StatusOK)
	}))

	encoded, err := engine.CreateToken("alice")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.Header.Set("Authorization", "Bearer "+encoded)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUser != "alice" || gotSub != "alice" {
		t.Fatalf("context values user=%v sub=%q", gotUser, gotSub)
	}
}

func TestGuardExcludedPassThrough(t *testing.T) {
	engine, err := jwtguard.New().
		WithSecret([]byte("middleware-secret-0123456789abcd")).
		WithExcludedPaths([]string{"/login"}).
		WithUserRetriever(jwtguard.UserRetrieverFunc(echoSubject)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	var hadIdentity bool
	srv := guardedServer(t, engine, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadIdentity = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if hadIdentity {
		t.Fatal("excluded request must carry no identity")
	}
}

func TestGuardRetrieverMalfunctionIs500(t *testing.T) {
	engine := newEngine(t, jwtguard.UserRetrieverFunc(func(context.Context, string) (any, error) {
		return nil, errors.New("database down")
	}))
	srv := guardedServer(t, engine, nil)

	encoded, err := engine.CreateToken("alice")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.Header.Set("Authorization", "Bearer "+encoded)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestGuardNilEngine(t *testing.T) {
	srv := Guard(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthFromContext(t *testing.T) {
	engine := newEngine(t, jwtguard.UserRetrieverFunc(echoSubject))

	var result *jwtguard.AuthResult
	srv := guardedServer(t, engine, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, _ = AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	encoded, err := engine.CreateToken("alice")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.Header.Set("Authorization", "Bearer "+encoded)
	srv.ServeHTTP(httptest.NewRecorder(), r)

	if result == nil || result.User != "alice" || result.Token.Sub != "alice" {
		t.Fatalf("unexpected auth result: %+v", result)
	}

	// Absent outside a guarded handler.
	if _, ok := AuthFromContext(context.Background()); ok {
		t.Fatal("expected no auth result in a bare context")
	}
}
