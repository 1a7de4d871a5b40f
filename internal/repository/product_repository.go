package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログ（作品・商品）の読み取りだけを約束。実行中は変わらない。
type CatalogRepository interface {
	ListArtworks(ctx context.Context) ([]model.Artwork, error)
	// allなら全件、それ以外はカテゴリ一致のみ。並びは定義順。
	ListProducts(ctx context.Context, filter model.Category) ([]model.Product, error)
	FindProductByID(ctx context.Context, id int64) (model.Product, error)
}
