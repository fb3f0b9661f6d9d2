package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog/log"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/oauth"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

type AuthHandler struct {
	cfg          *config.Config
	providers    map[string]oauth.Provider
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	integrations IntegrationSaver
	states       sync.Map
	authCodes    sync.Map
}

type stateData struct {
	expiresAt time.Time
}

type authCodeData struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func NewAuthHandler(
	cfg *config.Config,
	providers map[string]oauth.Provider,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	integrations IntegrationSaver,
) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		providers:    providers,
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		integrations: integrations,
	}
}

// CleanupStates drops expired login states and exchange codes until ctx is done.
func (h *AuthHandler) CleanupStates(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

func (h *AuthHandler) sweep(now time.Time) {
	h.states.Range(func(key, value any) bool {
		if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
			h.states.Delete(key)
		}
		return true
	})
	h.authCodes.Range(func(key, value any) bool {
		if acd, ok := value.(authCodeData); ok && now.After(acd.expiresAt) {
			h.authCodes.Delete(key)
		}
		return true
	})
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		fail(c, http.StatusBadRequest, "unsupported provider: "+provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to generate state")
		return
	}

	h.states.Store(state, stateData{expiresAt: time.Now().Add(stateTTL)})

	_ = c.JSON(http.StatusOK, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.redirectWithError(c, "invalid or expired state")
		return
	}
	if sdTyped, ok := sd.(stateData); !ok || time.Now().After(sdTyped.expiresAt) {
		h.redirectWithError(c, "state expired")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("provider", p.Name()).Msg("oauth code exchange failed")
		h.redirectWithError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, userInfo)
	if err != nil {
		if errors.Is(err, services.ErrEmailInUse) {
			h.redirectWithError(c, err.Error())
			return
		}
		log.Error().Err(err).Str("provider", p.Name()).Msg("failed to create user from oauth")
		h.redirectWithError(c, "failed to create user")
		return
	}

	h.keepGitHubToken(ctx, user.ID, userInfo)

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}

	h.authCodes.Store(authCode, authCodeData{
		userID:    user.ID,
		expiresAt: time.Now().Add(authCodeTTL),
	})

	c.Redirect(http.StatusFound, fmt.Sprintf("%s?code=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(authCode)))
}

// keepGitHubToken saves the login token as the user's GitHub integration. A failure only
// means the user connects GitHub by hand later.
func (h *AuthHandler) keepGitHubToken(ctx context.Context, userID uuid.UUID, info *oauth.UserInfo) {
	if info.Provider != models.IntegrationGitHub || info.AccessToken == "" || h.integrations == nil {
		return
	}
	if _, err := h.integrations.Save(ctx, userID, models.IntegrationGitHub, nil, nil, info.AccessToken); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to store github token from login")
	}
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if !bind(c, &req) {
		return
	}

	if req.Code == "" {
		fieldErrors{"code": "code is required"}.respond(c)
		return
	}

	acd, ok := h.authCodes.LoadAndDelete(req.Code)
	if !ok {
		fail(c, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	codeData, ok := acd.(authCodeData)
	if !ok || time.Now().After(codeData.expiresAt) {
		fail(c, http.StatusUnauthorized, "code expired")
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, codeData.userID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		respondError(c, err, "failed to generate tokens")
		return
	}

	tokenHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		respondError(c, err, "failed to store refresh token")
		return
	}

	_ = c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if !bind(c, &req) {
		return
	}

	if req.RefreshToken == "" {
		fieldErrors{"refresh_token": "refresh_token is required"}.respond(c)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		respondError(c, err, "failed to generate tokens")
		return
	}

	oldHash := services.HashToken(req.RefreshToken)
	newHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.RotateRefreshToken(ctx, user.ID, oldHash, newHash, expiresAt); err != nil {
		if errors.Is(err, services.ErrRefreshTokenNotFound) {
			fail(c, http.StatusUnauthorized, "refresh token not found or expired")
			return
		}
		respondError(c, err, "failed to rotate refresh token")
		return
	}

	_ = c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}

	if req.RefreshToken != "" {
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), services.HashToken(req.RefreshToken))
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		respondError(c, err, "failed to revoke tokens")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "all sessions logged out"})
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	c.Redirect(http.StatusFound, fmt.Sprintf("%s?error=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(errMsg)))
}
