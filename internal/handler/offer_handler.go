package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cart/offer と /cart/breakdown のHTTP
type OfferHandler struct {
	svc   *usecase.CartService
	rules usecase.PricingRules
}

// DI
func NewOfferHandler(svc *usecase.CartService, rules usecase.PricingRules) *OfferHandler {
	return &OfferHandler{svc: svc, rules: rules}
}

type ApplyOfferRequest struct {
	Code string `json:"code"`
}

type OfferStateResponse struct {
	State usecase.OfferState `json:"state"`
	Offer interface{}        `json:"offer,omitempty"`
}

func (h *OfferHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/offer", h.applyOffer)
	g.DELETE("/offer", h.removeOffer)
	g.GET("/breakdown", h.getBreakdown)
}

func (h *OfferHandler) session(c echo.Context) (*usecase.CartEngine, *usecase.OfferSession, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return nil, nil, false
	}
	sid, ok := getSessionKeyFromContext(c)
	if !ok {
		return nil, nil, false
	}
	return h.svc.Engine(sid, userID), h.svc.Offer(sid), true
}

func (h *OfferHandler) applyOffer(c echo.Context) error {
	eng, offers, ok := h.session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ApplyOfferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid code"})
	}

	offer, err := offers.Apply(c.Request().Context(), req.Code, eng.Total())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, OfferStateResponse{State: offers.State(), Offer: offer})
}

func (h *OfferHandler) removeOffer(c echo.Context) error {
	_, offers, ok := h.session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	offers.Remove()
	return c.JSON(http.StatusOK, OfferStateResponse{State: offers.State()})
}

// 現在のカートと適用中オファーから内訳を計算して返す。
// 内訳は保存しない一時値。
func (h *OfferHandler) getBreakdown(c echo.Context) error {
	eng, offers, ok := h.session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	bd := usecase.ComputeBreakdown(eng.Lines(), offers.Applied(), h.rules)
	return c.JSON(http.StatusOK, bd)
}
