package v1

import (
	"errors"
	"net/http"
	"time"

	"mhargick-backend/config"
	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/usecase"
	"mhargick-backend/pkg/utils"
)

type AuthHandler struct {
	authUC *usecase.AuthUsecase
	cfg    *config.Config
}

func NewAuthHandler(authUC *usecase.AuthUsecase, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authUC: authUC, cfg: cfg}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req usecase.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authUC.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			utils.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tokens, err := h.authUC.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			utils.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.setAuthCookies(w, tokens)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)
	if token == "" {
		utils.WriteError(w, http.StatusUnauthorized, "refresh token required")
		return
	}

	tokens, err := h.authUC.Refresh(r.Context(), token, r.UserAgent())
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.setAuthCookies(w, tokens)
	utils.WriteJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authUC.Logout(r.Context(), refreshTokenFromRequest(r)); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	h.clearAuthCookies(w)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	profile, err := h.authUC.GetProfile(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)

	var req usecase.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.authUC.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

// --- Cookies ---

func refreshTokenFromRequest(r *http.Request) string {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken
	}
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, tokens *usecase.TokenPair) {
	secure := h.cfg.Env == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cfg.AccessTokenExpiry / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		Path:     "/api/v1/auth",
		MaxAge:   int(h.cfg.RefreshTokenExpiry / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "", Path: "/api/v1/auth", MaxAge: -1, HttpOnly: true})
}
