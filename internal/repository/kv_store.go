package repository

import "context"

// ブラウザのlocalStorage相当のキー・バリュー保存先。
// 未登録のキーはErrNotFound。
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
