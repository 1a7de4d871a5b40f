package model

import "github.com/shopspring/decimal"

// 1明細あたりの数量の上限。これを超える増加は上限で止める。
const MaxQuantity int64 = 9999

// カート本体。明細はidで一意、追加順を保つ。
// quantity<=0の明細は存在しない（削除される）。
type Cart struct {
	Lines []CartLine `json:"items"`
}

// idの明細の位置。無ければ-1。
func (c *Cart) Find(productID int64) int {
	for i, l := range c.Lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

// 同一商品は数量+1、無ければ数量1で末尾に追加
func (c *Cart) Add(p Product) {
	if i := c.Find(p.ID); i >= 0 {
		if c.Lines[i].Quantity < MaxQuantity {
			c.Lines[i].Quantity++
		}
		return
	}
	c.Lines = append(c.Lines, CartLine{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: 1,
	})
}

// 数量をdeltaだけ変える。0以下になったら明細を消す。
// 増やす方向はMaxQuantityで止める。明細が無ければfalse。
func (c *Cart) Adjust(productID int64, delta int64) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	cur := c.Lines[i].Quantity
	if delta > 0 && delta >= MaxQuantity-cur {
		c.Lines[i].Quantity = max(cur, MaxQuantity)
		return true
	}
	q := cur + delta
	if q <= 0 {
		c.removeAt(i)
		return true
	}
	c.Lines[i].Quantity = q
	return true
}

// 明細を削除。無ければfalse。
func (c *Cart) Remove(productID int64) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// バッジ用の合計数量
func (c Cart) TotalItems() int64 {
	var n int64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// 合計金額（小数2桁に丸める）
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// 描画・保存用のコピー
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// 外部から読み込んだ明細を整える。
// quantity<1や重複idは捨てる（先に出た方を残す）。MaxQuantityを超える数量は丸める。
func (c Cart) Normalize() Cart {
	out := Cart{}
	seen := make(map[int64]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if l.ID <= 0 || l.Quantity < 1 || l.Price.IsNegative() {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		l.Quantity = min(l.Quantity, MaxQuantity)
		out.Lines = append(out.Lines, l)
	}
	return out
}
