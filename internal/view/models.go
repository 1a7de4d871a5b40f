package view

import (
	"net/url"

	"storefront/internal/domain/model"
	"storefront/internal/notify"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
)

// ページ内のセクション（ナビのリンク先）
type Section struct {
	ID    string
	Label string
}

var Sections = []Section{
	{ID: "home", Label: "Home"},
	{ID: "gallery", Label: "Gallery"},
	{ID: "shop", Label: "Shop"},
	{ID: "about", Label: "About"},
}

const DefaultSection = "home"

// 不明なセクションはhome
func ParseSection(v string) string {
	for _, s := range Sections {
		if s.ID == v {
			return v
		}
	}
	return DefaultSection
}

// 画面の状態。URLのクエリで持ち回る。
type State struct {
	Category model.Category
	Section  string
	CartOpen bool
}

func (s State) WithCategory(c model.Category) State {
	s.Category = c
	return s
}

func (s State) WithSection(id string) State {
	s.Section = id
	return s
}

func (s State) WithCart(open bool) State {
	s.CartOpen = open
	return s
}

// 例: /?category=hoodies&section=shop&cart=open#shop
func (s State) URL() string {
	q := url.Values{}
	if s.Category != "" && s.Category != model.CategoryAll {
		q.Set("category", string(s.Category))
	}
	if s.Section != "" && s.Section != DefaultSection {
		q.Set("section", s.Section)
	}
	if s.CartOpen {
		q.Set("cart", "open")
	}

	u := "/"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	if s.Section != "" {
		u += "#" + s.Section
	}
	return u
}

type ArtworkCard struct {
	Image  string
	Title  string
	Artist string
	Price  string
}

type ProductCard struct {
	ID       int64
	Image    string
	Name     string
	Category model.Category
	Price    string
}

type FilterButton struct {
	Category model.Category
	Active   bool
}

type ProductGrid struct {
	Cards   []ProductCard
	Filters []FilterButton
}

type NavLink struct {
	Section
	Active bool
}

type CartRow struct {
	ID       int64
	Name     string
	Price    string
	Quantity int64
	Subtotal string
}

type CartView struct {
	Empty bool
	Rows  []CartRow
	Count int64
	Total string
}

// テンプレートに渡す全体
type Page struct {
	State         State
	CSRFToken     string
	Nav           []NavLink
	Artworks      []ArtworkCard
	Products      ProductGrid
	Cart          CartView
	Notices       []notify.Notice
	NotifyDelayMS int64
}

// 商品グリッドのフォームはshopへ戻す
const ProductFormSection = "shop"

// 商品フォーム用のコピー（テンプレートから使う）
func (p Page) ProductForm() Page {
	p.State = p.State.WithSection(ProductFormSection)
	return p
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// 作品カード（表示のみ）
func Catalog(artworks []model.Artwork) []ArtworkCard {
	cards := make([]ArtworkCard, 0, len(artworks))
	for _, a := range artworks {
		cards = append(cards, ArtworkCard{
			Image:  a.Image,
			Title:  a.Title,
			Artist: a.Artist,
			Price:  money(a.Price),
		})
	}
	return cards
}

// filterで絞った商品カードとフィルタボタン。activeは1つだけ。
func Products(products []model.Product, filter model.Category) ProductGrid {
	grid := ProductGrid{Cards: []ProductCard{}}
	for _, p := range products {
		if !p.Matches(filter) {
			continue
		}
		grid.Cards = append(grid.Cards, ProductCard{
			ID:       p.ID,
			Image:    p.Image,
			Name:     p.Name,
			Category: p.Category,
			Price:    money(p.Price),
		})
	}
	for _, c := range model.FilterCategories {
		grid.Filters = append(grid.Filters, FilterButton{Category: c, Active: c == filter})
	}
	return grid
}

func Cart(cart usecase.CartResponse) CartView {
	v := CartView{
		Empty: cart.IsEmpty(),
		Count: cart.TotalItems,
		Total: money(cart.Total),
	}
	for _, it := range cart.Items {
		v.Rows = append(v.Rows, CartRow{
			ID:       it.ID,
			Name:     it.Name,
			Price:    money(it.Price),
			Quantity: it.Quantity,
			Subtotal: money(it.Subtotal),
		})
	}
	return v
}

// activeは1つだけ
func Nav(active string) []NavLink {
	links := make([]NavLink, 0, len(Sections))
	for _, s := range Sections {
		links = append(links, NavLink{Section: s, Active: s.ID == active})
	}
	return links
}
