package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AuroraCommerceLab/boutique/backend/internal/auth"
	"github.com/AuroraCommerceLab/boutique/backend/internal/catalog"
	"github.com/AuroraCommerceLab/boutique/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const userContextKey = "boutique_user"

var (
	errMissingOIDCClient     = errors.New("oidc client dependency required")
	errMissingUserService    = errors.New("user service dependency required")
	errMissingCatalogService = errors.New("catalog service dependency required")
	errMissingSessionCodec   = errors.New("session codec dependency required")
)

// OIDCClient is the provider-facing surface consumed by the auth handlers.
type OIDCClient interface {
	AuthCodeURL(state, verifier, redirectURI string) string
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*oauth2.Token, error)
	ExtractClaims(ctx context.Context, token *oauth2.Token) (auth.Claims, bool)
	EndSessionURL(postLogoutRedirect string) string
}

// Dependencies bundles the collaborators wired into the HTTP handler.
type Dependencies struct {
	OIDC     OIDCClient
	Users    *users.Service
	Catalog  *catalog.Service
	Sessions *auth.SessionCodec
	Logger   *zap.Logger
}

// NewHTTPHandler builds the gin router for the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.OIDC == nil {
		return nil, errMissingOIDCClient
	}
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Catalog == nil {
		return nil, errMissingCatalogService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionCodec
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		oidc:     deps.OIDC,
		users:    deps.Users,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		logger:   logger,
	}

	router.GET("/", handler.handleRoot)

	authRoutes := router.Group("/auth")
	authRoutes.GET("/login", handler.handleLogin)
	authRoutes.GET("/callback", handler.handleCallback)
	authRoutes.GET("/logout", handler.handleLogout)
	authRoutes.GET("/me", handler.handleMe)
	authRoutes.GET("/error", handler.handleAuthError)

	products := router.Group("/products")
	products.GET("", handler.handleListProducts)
	products.GET("/:id", handler.handleGetProduct)

	protected := router.Group("/products")
	protected.Use(handler.requireUser)
	protected.POST("", handler.handleCreateProduct)
	protected.PATCH("/:id", handler.handleUpdateProduct)
	protected.DELETE("/:id", handler.handleDeleteProduct)

	return router, nil
}

type httpHandler struct {
	oidc     OIDCClient
	users    *users.Service
	catalog  *catalog.Service
	sessions *auth.SessionCodec
	logger   *zap.Logger
}

func (h *httpHandler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Product Management API"})
}

// currentUser resolves the session cookie to a user record. An anonymous
// session or a user id that no longer resolves both yield ok=false without
// an error.
func (h *httpHandler) currentUser(c *gin.Context) (users.User, bool) {
	session := h.sessions.Read(c.Request)
	if session.IsAnonymous() {
		return users.User{}, false
	}
	user, err := h.users.FindByID(c.Request.Context(), session.UserID)
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			h.logger.Warn("session user lookup failed", zap.Error(err))
		}
		return users.User{}, false
	}
	return user, true
}

// requireUser aborts with 401 when the session does not resolve to a user.
func (h *httpHandler) requireUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userContextKey, user)
	c.Next()
}
