package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 保存キーの名前空間。元のページのlocalStorageキーと同じ。
const CartKeyPrefix = "vip-cart"

// 保存形式の1明細 {id, name, price, quantity}
// priceは数値で書く。読み込みは文字列の数値も受け付ける。
type cartLineRecord struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int64       `json:"quantity"`
}

// KVSにカートをJSONで保存する。
// 保存先の失敗はログに残して返すだけ（メモリ上のカートが正）。
type CartKVStorage struct {
	store repo.KeyValueStore
	log   *zap.Logger
}

var _ repo.CartStorage = (*CartKVStorage)(nil)

// DI
func NewCartKVStorage(store repo.KeyValueStore, log *zap.Logger) *CartKVStorage {
	return &CartKVStorage{store: store, log: log}
}

func CartKey(sessionID string) string {
	return CartKeyPrefix + ":" + sessionID
}

// 空カートはキーごと消す（Loadは無いキーを空カートとして読む）
func (s *CartKVStorage) Save(ctx context.Context, sessionID string, cart model.Cart) error {
	if cart.IsEmpty() {
		if err := s.store.Delete(ctx, CartKey(sessionID)); err != nil {
			s.log.Warn("cart delete failed, keeping in-memory state",
				zap.String("session", sessionID),
				zap.Error(err))
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	}

	raw, err := EncodeCart(cart)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, CartKey(sessionID), raw); err != nil {
		s.log.Warn("cart save failed, keeping in-memory state",
			zap.String("session", sessionID),
			zap.Int("lines", len(cart.Lines)),
			zap.Error(err))
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// 無い・壊れている・読めないときは空カート
func (s *CartKVStorage) Load(ctx context.Context, sessionID string) model.Cart {
	raw, err := s.store.Get(ctx, CartKey(sessionID))
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}
	}
	if err != nil {
		s.log.Warn("cart load failed, starting empty",
			zap.String("session", sessionID),
			zap.Error(err))
		return model.Cart{}
	}

	cart, err := DecodeCart(raw)
	if err != nil {
		s.log.Warn("stored cart is malformed, starting empty",
			zap.String("session", sessionID),
			zap.Error(err))
		return model.Cart{}
	}
	return cart
}

// 明細の並び順どおりにJSON配列へ
func EncodeCart(cart model.Cart) (string, error) {
	records := make([]cartLineRecord, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		records = append(records, cartLineRecord{
			ID:       l.ID,
			Name:     l.Name,
			Price:    json.Number(l.Price.String()),
			Quantity: l.Quantity,
		})
	}

	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(b), nil
}

func DecodeCart(raw string) (model.Cart, error) {
	var records []cartLineRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return model.Cart{}, fmt.Errorf("decode cart: %w", err)
	}

	cart := model.Cart{}
	for _, r := range records {
		price, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			return model.Cart{}, fmt.Errorf("decode cart: line %d price: %w", r.ID, err)
		}
		cart.Lines = append(cart.Lines, model.CartLine{
			ID:       r.ID,
			Name:     r.Name,
			Price:    price,
			Quantity: r.Quantity,
		})
	}
	return cart.Normalize(), nil
}
