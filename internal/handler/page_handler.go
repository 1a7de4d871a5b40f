package handler

import (
	"net/http"
	"time"

	"storefront/internal/notify"
	"storefront/internal/usecase"
	"storefront/internal/view"

	"github.com/labstack/echo/v4"
)

// 表示中の通知と、トーストが消えるまでの時間（notify.Notifier）
type NoticeSource interface {
	Active(sessionID string) []notify.Notice
	Delay() time.Duration
}

// GET / ページ全体
type PageHandler struct {
	products *usecase.ProductUsecase
	cart     *usecase.CartUsecase
	notices  NoticeSource
}

// DI
func NewPageHandler(products *usecase.ProductUsecase, cart *usecase.CartUsecase, notices NoticeSource) *PageHandler {
	return &PageHandler{products: products, cart: cart, notices: notices}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.page)
}

func (h *PageHandler) page(c echo.Context) error {
	sid, ok := sessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session"})
	}
	ctx := c.Request().Context()

	artworks, err := h.products.ListArtworks(ctx)
	if err != nil {
		return writeError(c, err)
	}
	products, err := h.products.ListProducts(ctx, c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}
	cart, err := h.cart.GetCart(ctx, sid)
	if err != nil {
		return writeError(c, err)
	}

	state := stateFromRequest(c)
	state.Category = products.Filter

	return c.Render(http.StatusOK, view.PageTemplate, view.Page{
		State:         state,
		CSRFToken:     csrfToken(c),
		Nav:           view.Nav(state.Section),
		Artworks:      view.Catalog(artworks),
		Products:      view.Products(products.Items, products.Filter),
		Cart:          view.Cart(cart),
		Notices:       h.notices.Active(sid),
		NotifyDelayMS: h.notices.Delay().Milliseconds(),
	})
}
