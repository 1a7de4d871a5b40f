package model

import "github.com/shopspring/decimal"

// カートの明細
// Name/Priceは追加時点のスナップショット。カタログの後の変更は反映しない。
type CartLine struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// 小計（price×quantity）
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}
