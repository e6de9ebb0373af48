package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /cartのHTTP
type CartHandler struct {
	svc *usecase.CartService
}

// DI
func NewCartHandler(svc *usecase.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

type AddCartRequest struct {
	MenuItemID     string `json:"menu_item_id"`
	Quantity       int64  `json:"quantity"`
	SpecialRequest string `json:"special_request"`
}

type UpdateCartLineRequest struct {
	Quantity int64 `json:"quantity"`
}

// 可視カートと派生値をまとめて返す
type CartResponse struct {
	Lines             []model.CartLine `json:"lines"`
	Total             decimal.Decimal  `json:"total"`
	DistinctItemCount int              `json:"distinct_item_count"` // バッジ用
	TotalUnitCount    int64            `json:"total_unit_count"`
}

// /cart, /cart/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.getCart)
	g.POST("", h.addItem)
	g.PATCH("/:id", h.patchLine)
	g.DELETE("/:id", h.deleteLine)
	g.DELETE("", h.clear)
}

func (h *CartHandler) engine(c echo.Context) (*usecase.CartEngine, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return nil, false
	}
	sid, ok := getSessionKeyFromContext(c)
	if !ok {
		return nil, false
	}
	return h.svc.Engine(sid, userID), true
}

func (h *CartHandler) getCart(c echo.Context) error {
	eng, ok := h.engine(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	return c.JSON(http.StatusOK, h.toResponse(eng))
}

func (h *CartHandler) addItem(c echo.Context) error {
	eng, ok := h.engine(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := eng.AddItem(c.Request().Context(), req.MenuItemID, req.Quantity, req.SpecialRequest); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, h.toResponse(eng))
}

func (h *CartHandler) patchLine(c echo.Context) error {
	eng, ok := h.engine(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpdateCartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := eng.UpdateQuantity(c.Request().Context(), c.Param("id"), req.Quantity); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, h.toResponse(eng))
}

func (h *CartHandler) deleteLine(c echo.Context) error {
	eng, ok := h.engine(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := eng.RemoveItem(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, h.toResponse(eng))
}

func (h *CartHandler) clear(c echo.Context) error {
	eng, ok := h.engine(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := eng.Clear(c.Request().Context()); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, h.toResponse(eng))
}

// 可視カートからレスポンスを作る。派生値は毎回計算し直す。
func (h *CartHandler) toResponse(eng *usecase.CartEngine) CartResponse {
	return CartResponse{
		Lines:             eng.Lines(),
		Total:             eng.Total(),
		DistinctItemCount: eng.DistinctItemCount(),
		TotalUnitCount:    eng.TotalUnitCount(),
	}
}
