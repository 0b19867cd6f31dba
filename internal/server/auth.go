package server

import (
	"net/http"

	"github.com/AuroraCommerceLab/boutique/backend/internal/auth"
	"github.com/AuroraCommerceLab/boutique/backend/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const genericAuthErrorMessage = "Authentication failed"

type callbackOutcome int

const (
	callbackSucceeded callbackOutcome = iota
	callbackStateMismatch
	callbackExchangeFailed
	callbackClaimsUnavailable
	callbackReconcileFailed
)

// callbackResult is the typed outcome of one callback attempt. Failures carry
// a human-readable message for the error page; the handler converts them to a
// redirect in one place.
type callbackResult struct {
	outcome callbackOutcome
	message string
	user    users.User
	err     error
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	// The anti-forgery state and PKCE verifier ride in the signed session
	// cookie until the provider calls back.
	session := h.sessions.Read(c.Request)
	session.OAuthState = state
	session.PKCEVerifier = verifier
	if err := h.sessions.Write(c.Writer, session); err != nil {
		h.logger.Error("failed to write session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session_write_failed"})
		return
	}

	redirectURI := requestBaseURL(c.Request) + "/auth/callback"
	c.Redirect(http.StatusFound, h.oidc.AuthCodeURL(state, verifier, redirectURI))
}

func (h *httpHandler) handleCallback(c *gin.Context) {
	session := h.sessions.Read(c.Request)
	result := h.completeLogin(c, session)

	if result.outcome == callbackSucceeded {
		if err := h.sessions.Write(c.Writer, auth.Session{UserID: result.user.ID}); err != nil {
			h.logger.Error("failed to write session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session_write_failed"})
			return
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	if result.err != nil {
		h.logger.Warn("login callback failed", zap.String("reason", result.message), zap.Error(result.err))
	} else {
		h.logger.Warn("login callback failed", zap.String("reason", result.message))
	}

	// Stash the diagnostic for /auth/error; the transient oauth fields are
	// dropped along with everything else in the old session.
	if err := h.sessions.Write(c.Writer, auth.Session{LastError: result.message}); err != nil {
		h.logger.Error("failed to write session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/auth/error")
}

func (h *httpHandler) completeLogin(c *gin.Context, session auth.Session) callbackResult {
	state := c.Query("state")
	if session.OAuthState == "" || state != session.OAuthState {
		return callbackResult{outcome: callbackStateMismatch, message: "login session mismatch"}
	}

	redirectURI := requestBaseURL(c.Request) + "/auth/callback"
	token, err := h.oidc.Exchange(c.Request.Context(), c.Query("code"), session.PKCEVerifier, redirectURI)
	if err != nil {
		return callbackResult{outcome: callbackExchangeFailed, message: "token exchange failed", err: err}
	}

	claims, ok := h.oidc.ExtractClaims(c.Request.Context(), token)
	if !ok {
		return callbackResult{outcome: callbackClaimsUnavailable, message: "no identity claims in provider response"}
	}

	user, err := h.users.Reconcile(c.Request.Context(), claims)
	if err != nil {
		return callbackResult{outcome: callbackReconcileFailed, message: "failed to record user identity", err: err}
	}

	return callbackResult{outcome: callbackSucceeded, user: user}
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	h.sessions.Clear(c.Writer)
	postLogout := requestBaseURL(c.Request) + "/"
	c.Redirect(http.StatusFound, h.oidc.EndSessionURL(postLogout))
}

type meResponse struct {
	Authenticated   bool    `json:"authenticated"`
	ID              string  `json:"id"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func (h *httpHandler) handleMe(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, meResponse{
		Authenticated:   true,
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
	})
}

func (h *httpHandler) handleAuthError(c *gin.Context) {
	session := h.sessions.Read(c.Request)
	message := session.LastError
	if message == "" {
		message = genericAuthErrorMessage
	}
	c.JSON(http.StatusOK, gin.H{"error": message})
}

// requestBaseURL reconstructs the externally visible origin of the request.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
