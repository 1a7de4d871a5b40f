package handler

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/view"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /products 商品グリッド（フィルタ切り替え）
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
}

// JSONならProductListOutput、それ以外はグリッドのHTML断片
func (h *ProductHandler) list(c echo.Context) error {
	out, err := h.uc.ListProducts(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, out)
	}

	state := stateFromRequest(c)
	state.Category = out.Filter
	return c.Render(http.StatusOK, view.ProductsTemplate, view.Page{
		State:     state,
		CSRFToken: csrfToken(c),
		Products:  view.Products(out.Items, out.Filter),
	})
}

// category/section/cartはクエリでもフォームでも受ける
func stateFromRequest(c echo.Context) view.State {
	return view.State{
		Category: model.ParseFilter(c.FormValue("category")),
		Section:  view.ParseSection(c.FormValue("section")),
		CartOpen: c.FormValue("cart") == "open",
	}
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func csrfToken(c echo.Context) string {
	tok, _ := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string)
	return tok
}

func sessionID(c echo.Context) (string, bool) {
	return middleware.SessionIDFromContext(c)
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
