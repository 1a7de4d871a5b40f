package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAll         Category = "all"
	CategoryTShirts     Category = "tshirts"
	CategoryHoodies     Category = "hoodies"
	CategoryAccessories Category = "accessories"
)

// フィルタボタンの並び順
var FilterCategories = []Category{
	CategoryAll,
	CategoryTShirts,
	CategoryHoodies,
	CategoryAccessories,
}

// 商品カテゴリとして有効か（allは含まない）
func (c Category) Valid() bool {
	switch c {
	case CategoryTShirts, CategoryHoodies, CategoryAccessories:
		return true
	default:
		return false
	}
}

// 画面のフィルタ値を解釈する。不明な値はallとして扱う。
func ParseFilter(v string) Category {
	c := Category(v)
	if c.Valid() {
		return c
	}
	return CategoryAll
}

// アパレル商品（カートに入れられる）
type Product struct {
	ID       int64           `yaml:"id" json:"id"`
	Name     string          `yaml:"name" json:"name"`
	Category Category        `yaml:"category" json:"category"`
	Price    decimal.Decimal `yaml:"price" json:"price"`
	Image    string          `yaml:"image" json:"image"`
}

// filterに合うか。allは全件通す。
func (p Product) Matches(filter Category) bool {
	return filter == CategoryAll || p.Category == filter
}

func (p Product) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("product %q: id must be positive", p.Name)
	}
	if p.Name == "" {
		return fmt.Errorf("product %d: name required", p.ID)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("product %d: unknown category %q", p.ID, p.Category)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %d: price must be >= 0", p.ID)
	}
	return nil
}
