package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ギャラリーの作品（表示のみ）
type Artwork struct {
	ID     int64           `yaml:"id" json:"id"`
	Title  string          `yaml:"title" json:"title"`
	Artist string          `yaml:"artist" json:"artist"`
	Price  decimal.Decimal `yaml:"price" json:"price"`
	Image  string          `yaml:"image" json:"image"`
}

func (a Artwork) Validate() error {
	if a.ID <= 0 {
		return fmt.Errorf("artwork %q: id must be positive", a.Title)
	}
	if a.Title == "" {
		return fmt.Errorf("artwork %d: title required", a.ID)
	}
	if a.Price.IsNegative() {
		return fmt.Errorf("artwork %d: price must be >= 0", a.ID)
	}
	return nil
}
