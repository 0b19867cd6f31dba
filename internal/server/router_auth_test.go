package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/AuroraCommerceLab/boutique/backend/internal/auth"
	"golang.org/x/oauth2"
)

func stringPtr(value string) *string {
	return &value
}

func TestLoginRedirectsToProviderAndStashesState(t *testing.T) {
	var gotState, gotVerifier, gotRedirectURI string
	stub := &oidcStub{
		authCodeURL: func(state, verifier, redirectURI string) string {
			gotState = state
			gotVerifier = verifier
			gotRedirectURI = redirectURI
			return "https://provider.example.com/auth?state=" + state
		},
	}
	env := newTestEnv(t, stub)

	request := httptest.NewRequest(http.MethodGet, "http://app.example.com/auth/login", http.NoBody)
	recorder := env.serve(request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "https://provider.example.com/auth?state="+gotState {
		t.Fatalf("unexpected redirect location: %q", location)
	}
	if gotRedirectURI != "http://app.example.com/auth/callback" {
		t.Fatalf("unexpected callback address: %q", gotRedirectURI)
	}
	if gotState == "" || gotVerifier == "" {
		t.Fatalf("expected state and verifier to be generated")
	}

	session := env.responseSession(t, recorder)
	if session.OAuthState != gotState {
		t.Fatalf("state not stashed in session: got %q, want %q", session.OAuthState, gotState)
	}
	if session.PKCEVerifier != gotVerifier {
		t.Fatalf("verifier not stashed in session")
	}
}

func TestCallbackReconcilesUserAndBindsSession(t *testing.T) {
	stub := &oidcStub{
		exchange: func(_ context.Context, code, verifier, redirectURI string) (*oauth2.Token, error) {
			if code != "auth-code" {
				t.Fatalf("unexpected code: %q", code)
			}
			if verifier != "verifier-1" {
				t.Fatalf("unexpected verifier: %q", verifier)
			}
			return &oauth2.Token{AccessToken: "access"}, nil
		},
		extract: func(_ context.Context, _ *oauth2.Token) (auth.Claims, bool) {
			return auth.Claims{Subject: "subject-1", Email: stringPtr("user@example.com")}, true
		},
	}
	env := newTestEnv(t, stub)

	cookie := env.sessionCookie(t, auth.Session{OAuthState: "state-1", PKCEVerifier: "verifier-1"})
	request := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=state-1", http.NoBody)
	request.AddCookie(cookie)
	recorder := env.serve(request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/" {
		t.Fatalf("unexpected redirect location: %q", location)
	}

	session := env.responseSession(t, recorder)
	if session.UserID != "subject-1" {
		t.Fatalf("expected session bound to user, got %+v", session)
	}
	if session.OAuthState != "" || session.PKCEVerifier != "" {
		t.Fatalf("expected transient oauth fields dropped, got %+v", session)
	}

	user, err := env.users.FindByID(context.Background(), "subject-1")
	if err != nil {
		t.Fatalf("expected reconciled user: %v", err)
	}
	if user.Email == nil || *user.Email != "user@example.com" {
		t.Fatalf("unexpected reconciled email: %v", user.Email)
	}
}

func TestCallbackWithoutClaimsStashesDiagnostic(t *testing.T) {
	stub := &oidcStub{
		extract: func(_ context.Context, _ *oauth2.Token) (auth.Claims, bool) {
			return auth.Claims{}, false
		},
	}
	env := newTestEnv(t, stub)

	cookie := env.sessionCookie(t, auth.Session{OAuthState: "state-1", PKCEVerifier: "verifier-1"})
	request := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=state-1", http.NoBody)
	request.AddCookie(cookie)
	recorder := env.serve(request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/auth/error" {
		t.Fatalf("unexpected redirect location: %q", location)
	}

	session := env.responseSession(t, recorder)
	if session.UserID != "" {
		t.Fatalf("user must not be set on failed callback, got %q", session.UserID)
	}
	if session.LastError == "" {
		t.Fatalf("expected diagnostic stashed in session")
	}

	// The error page reflects the stashed diagnostic.
	errorRequest := httptest.NewRequest(http.MethodGet, "/auth/error", http.NoBody)
	for _, c := range recorder.Result().Cookies() {
		errorRequest.AddCookie(c)
	}
	errorRecorder := env.serve(errorRequest)
	if errorRecorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", errorRecorder.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(errorRecorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if payload["error"] != session.LastError {
		t.Fatalf("error page does not reflect diagnostic: got %q, want %q", payload["error"], session.LastError)
	}
}

func TestCallbackExchangeFailureRedirectsToErrorPage(t *testing.T) {
	stub := &oidcStub{
		exchange: func(_ context.Context, _, _, _ string) (*oauth2.Token, error) {
			return nil, errors.New("provider unreachable")
		},
	}
	env := newTestEnv(t, stub)

	cookie := env.sessionCookie(t, auth.Session{OAuthState: "state-1", PKCEVerifier: "verifier-1"})
	request := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=state-1", http.NoBody)
	request.AddCookie(cookie)
	recorder := env.serve(request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("exchange failure must not surface as a server error, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/auth/error" {
		t.Fatalf("unexpected redirect location: %q", location)
	}
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	env := newTestEnv(t, &oidcStub{})

	cookie := env.sessionCookie(t, auth.Session{OAuthState: "state-1", PKCEVerifier: "verifier-1"})
	request := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=wrong", http.NoBody)
	request.AddCookie(cookie)
	recorder := env.serve(request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/auth/error" {
		t.Fatalf("unexpected redirect location: %q", location)
	}
	if session := env.responseSession(t, recorder); session.UserID != "" {
		t.Fatalf("user must not be set on state mismatch")
	}
}

func TestLogoutClearsSessionAndRedirectsToProvider(t *testing.T) {
	stub := &oidcStub{
		endSession: func(postLogoutRedirect string) string {
			params := url.Values{}
			params.Set("client_id", "test-client")
			params.Set("post_logout_redirect_uri", postLogoutRedirect)
			return "https://provider.example.com/session/end?" + params.Encode()
		},
	}
	env := newTestEnv(t, stub)

	cookie := env.sessionCookie(t, auth.Session{UserID: "subject-1"})
	request := httptest.NewRequest(http.MethodGet, "http://app.example.com/auth/logout", http.NoBody)
	request.AddCookie(cookie)
	recorder := env.serve(request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	location, err := url.Parse(recorder.Header().Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect location: %v", err)
	}
	if got := location.Query().Get("client_id"); got != "test-client" {
		t.Fatalf("unexpected client_id: %q", got)
	}
	if got := location.Query().Get("post_logout_redirect_uri"); got != "http://app.example.com/" {
		t.Fatalf("unexpected post_logout_redirect_uri: %q", got)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expiring session cookie, got %+v", cookies)
	}
}

func TestMeAnonymous(t *testing.T) {
	env := newTestEnv(t, &oidcStub{})

	recorder := env.serve(httptest.NewRequest(http.MethodGet, "/auth/me", http.NoBody))
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload["authenticated"] != false {
		t.Fatalf("expected authenticated=false, got %v", payload)
	}
}

func TestMeAuthenticated(t *testing.T) {
	env := newTestEnv(t, &oidcStub{})

	if _, err := env.users.Reconcile(context.Background(), auth.Claims{
		Subject:   "subject-1",
		Email:     stringPtr("user@example.com"),
		FirstName: stringPtr("Example"),
	}); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	request := httptest.NewRequest(http.MethodGet, "/auth/me", http.NoBody)
	request.AddCookie(env.sessionCookie(t, auth.Session{UserID: "subject-1"}))
	recorder := env.serve(request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload meResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if !payload.Authenticated || payload.ID != "subject-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Email == nil || *payload.Email != "user@example.com" {
		t.Fatalf("unexpected email: %v", payload.Email)
	}
	if payload.LastName != nil {
		t.Fatalf("expected null last name, got %q", *payload.LastName)
	}
}

func TestMeWithDanglingUserID(t *testing.T) {
	env := newTestEnv(t, &oidcStub{})

	request := httptest.NewRequest(http.MethodGet, "/auth/me", http.NoBody)
	request.AddCookie(env.sessionCookie(t, auth.Session{UserID: "deleted-user"}))
	recorder := env.serve(request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("dangling user id must not error, got %d", recorder.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload["authenticated"] != false {
		t.Fatalf("expected authenticated=false for dangling user id, got %v", payload)
	}
}

func TestAuthErrorWithoutDiagnostic(t *testing.T) {
	env := newTestEnv(t, &oidcStub{})

	recorder := env.serve(httptest.NewRequest(http.MethodGet, "/auth/error", http.NoBody))
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload["error"] != genericAuthErrorMessage {
		t.Fatalf("unexpected error message: %q", payload["error"])
	}
}
