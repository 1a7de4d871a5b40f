package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ギャラリーと商品一覧（読み取りのみ）
type ProductUsecase struct {
	catalog repo.CatalogRepository
}

// DI
func NewProductUsecase(catalog repo.CatalogRepository) *ProductUsecase {
	return &ProductUsecase{catalog: catalog}
}

type ProductListOutput struct {
	Items  []model.Product `json:"items"`
	Filter model.Category  `json:"filter"`
}

func (u *ProductUsecase) ListArtworks(ctx context.Context) ([]model.Artwork, error) {
	items, err := u.catalog.ListArtworks(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "catalog error")
	}
	return items, nil
}

// filterが不明な値ならallとして扱う
func (u *ProductUsecase) ListProducts(ctx context.Context, filter string) (ProductListOutput, error) {
	cat := model.ParseFilter(filter)

	items, err := u.catalog.ListProducts(ctx, cat)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "catalog error")
	}
	return ProductListOutput{Items: items, Filter: cat}, nil
}
