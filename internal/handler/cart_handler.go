package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP。フォームは303でページへ戻し、JSONクライアントにはカートを返す。
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// /cart, /cart/items/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.POST("/items/:id", h.addItem)
	g.POST("/items/:id/quantity", h.updateQuantity)
	g.POST("/items/:id/delete", h.removeItem)
	g.DELETE("/items/:id", h.removeItem)
	g.POST("/checkout", h.checkout)
}

func (h *CartHandler) getCart(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), sid, id)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, out)
}

func (h *CartHandler) updateQuantity(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	delta, err := strconv.ParseInt(c.FormValue("delta"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid delta"})
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), sid, id, delta)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.RemoveFromCart(c.Request().Context(), sid, id)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, out)
}

// 空カートはアラートを出してカートを開いたまま戻す
func (h *CartHandler) checkout(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session"})
	}

	out, err := h.uc.Checkout(c.Request().Context(), sid)
	if errors.Is(err, usecase.ErrCartEmpty) {
		if wantsJSON(c) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: usecase.MsgCartEmpty})
		}
		return c.Redirect(http.StatusSeeOther, stateFromRequest(c).URL())
	}
	if err != nil {
		return writeError(c, err)
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, out)
	}
	return c.Redirect(http.StatusSeeOther, stateFromRequest(c).WithCart(false).URL())
}

func (h *CartHandler) respond(c echo.Context, out usecase.CartResponse) error {
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, out)
	}
	return c.Redirect(http.StatusSeeOther, stateFromRequest(c).URL())
}
