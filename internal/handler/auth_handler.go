package handler

import (
	"errors"
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/session"
	auth "app/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// /authのHTTP。
// ログイン・ログアウトは認証状態の遷移をHubへ流す（Reconcilerが拾う）。
type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
	hub        *session.Hub
}

// DI
func NewAuthHandler(registerUC *auth.RegisterUserUsecase, loginUC *auth.LoginUsecase, hub *session.Hub) *AuthHandler {
	return &AuthHandler{registerUC: registerUC, loginUC: loginUC, hub: hub}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	SessionKey string `json:"session_key"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)

	g := e.Group("/auth")
	g.Use(middleware.AuthJWT(cfg))
	g.POST("/logout", h.logout)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmailFormat), errors.Is(err, auth.ErrPasswordTooShort):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// 認証処理中は待ち状態（可視状態は変えない）
	if req.SessionKey != "" {
		h.hub.Publish(req.SessionKey, session.StatusAuthenticating, "")
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		SessionKey: req.SessionKey,
	})
	if err != nil {
		// 失敗したら匿名へ戻す（匿名カートはクリアしない）
		if req.SessionKey != "" {
			h.hub.Publish(req.SessionKey, session.StatusAnonymous, "")
		}

		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "user inactive"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	// ここでReconcilerが動く：ローカル即時表示→リモートで置換
	h.hub.Publish(out.SessionKey, session.StatusAuthenticated, out.User.ID)

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	sid, ok := getSessionKeyFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	// サインアウト。Reconcilerがローカルをクリアする。重複通知は抑止される。
	h.hub.Publish(sid, session.StatusAnonymous, "")

	return c.NoContent(http.StatusNoContent)
}
