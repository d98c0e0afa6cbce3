package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GeonSoon1/moonshot-myself/internal/config"
	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/repository"
	"github.com/GeonSoon1/moonshot-myself/internal/service"
)

const googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"

// oauthStateTTL bounds how long a consent round-trip may take.
const oauthStateTTL = 10 * time.Minute

// AuthHandler exposes the credential and token endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	States repository.OAuthStateStore
	Cfg    config.Config
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, states repository.OAuthStateStore, cfg config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, States: states, Cfg: cfg}
}

// Register creates a password-credentialed account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email        string `json:"email" binding:"required"`
		Password     string `json:"password" binding:"required"`
		Name         string `json:"name"`
		ProfileImage string `json:"profileImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrValidation)
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userPayload(user))
}

// Login exchanges email and password for a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrValidation)
		return
	}

	pair, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token for a fresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrValidation)
		return
	}

	pair, err := h.Auth.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// GoogleAuthURL mints a consent URL with a one-time state value.
func (h *AuthHandler) GoogleAuthURL(c *gin.Context) {
	state := uuid.NewString()
	nonce := uuid.NewString()
	if err := h.States.SaveState(c.Request.Context(), state, nonce, oauthStateTTL); err != nil {
		respondError(c, err)
		return
	}

	query := url.Values{}
	query.Set("client_id", h.Cfg.GoogleClientID)
	query.Set("redirect_uri", h.Cfg.GoogleRedirectURI)
	query.Set("response_type", "code")
	query.Set("scope", "openid email profile")
	query.Set("state", state)
	query.Set("nonce", nonce)

	c.JSON(http.StatusOK, gin.H{"url": googleAuthorizeURL + "?" + query.Encode()})
}

// GoogleLogin redeems the consent callback code for a token pair.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Code  string `json:"code" binding:"required"`
		State string `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrValidation)
		return
	}

	nonce, err := h.States.ConsumeState(c.Request.Context(), req.State)
	if err != nil {
		respondError(c, err)
		return
	}
	if nonce == "" {
		// Unknown or replayed state.
		respondError(c, domain.ErrUnauthenticated)
		return
	}

	pair, err := h.Auth.GoogleLogin(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// userPayload renders ids as strings so snowflake values survive JSON
// number precision.
func userPayload(user domain.User) gin.H {
	return gin.H{
		"id":           strconv.FormatInt(user.ID, 10),
		"email":        user.Email,
		"name":         user.Name,
		"profileImage": user.ProfileImage,
		"createdAt":    user.CreatedAt,
	}
}
