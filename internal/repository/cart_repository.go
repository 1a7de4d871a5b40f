package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// セッションごとのカートの保存先。
// Loadは失敗しても空カートを返す（エラーにしない）。
type CartStorage interface {
	Save(ctx context.Context, sessionID string, cart model.Cart) error
	Load(ctx context.Context, sessionID string) model.Cart
}
