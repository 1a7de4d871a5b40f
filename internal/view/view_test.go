package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/catalog"
	"storefront/internal/notify"
	"storefront/internal/usecase"
	"storefront/internal/view"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allProducts(t *testing.T) []model.Product {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	ps, err := c.ListProducts(context.Background(), model.CategoryAll)
	require.NoError(t, err)
	return ps
}

func render(t *testing.T, name string, page view.Page) (string, *goquery.Document) {
	t.Helper()
	r, err := view.NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, page, nil))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return buf.String(), doc
}

func sampleCart() usecase.CartResponse {
	return usecase.CartResponse{
		Items: []usecase.CartItemResponse{
			{ID: 101, Name: "Art Gallery T-Shirt", Price: decimal.RequireFromString("29.99"), Quantity: 2, Subtotal: decimal.RequireFromString("59.98")},
			{ID: 104, Name: "Artist Signature Cap", Price: decimal.RequireFromString("19.99"), Quantity: 1, Subtotal: decimal.RequireFromString("19.99")},
		},
		TotalItems: 3,
		Total:      decimal.RequireFromString("79.97"),
	}
}

// Test: hoodiesで絞るとhoodiesだけ
func TestProducts_FilterHoodies(t *testing.T) {
	grid := view.Products(allProducts(t), model.CategoryHoodies)

	require.Len(t, grid.Cards, 2)
	for _, c := range grid.Cards {
		assert.Equal(t, model.CategoryHoodies, c.Category)
	}

	active := 0
	for _, f := range grid.Filters {
		if f.Active {
			active++
			assert.Equal(t, model.CategoryHoodies, f.Category)
		}
	}
	assert.Equal(t, 1, active)

	_, doc := render(t, view.ProductsTemplate, view.Page{
		State:    view.State{Category: model.CategoryHoodies, Section: "shop"},
		Products: grid,
	})
	cards := doc.Find(".product-card")
	assert.Equal(t, 2, cards.Length())
	cards.Each(func(_ int, s *goquery.Selection) {
		cat, _ := s.Attr("data-category")
		assert.Equal(t, "hoodies", cat)
	})
	assert.Equal(t, 1, doc.Find(".filter-btn.active").Length())
	assert.Equal(t, "hoodies", strings.TrimSpace(doc.Find(".filter-btn.active").Text()))
}

func TestProducts_FilterAll(t *testing.T) {
	grid := view.Products(allProducts(t), model.CategoryAll)
	assert.Len(t, grid.Cards, 8)

	_, doc := render(t, view.ProductsTemplate, view.Page{Products: grid, CSRFToken: "tok"})
	assert.Equal(t, 8, doc.Find(".product-card").Length())

	form := doc.Find(".product-card form").First()
	action, _ := form.Attr("action")
	assert.Equal(t, "/cart/items/101", action)
	csrf, _ := form.Find(`input[name="_csrf"]`).Attr("value")
	assert.Equal(t, "tok", csrf)
	assert.Equal(t, "$29.99", doc.Find(".product-card .price").First().Text())
}

// Test: 商品フォームはshopに戻る（ページの状態は変えない）
func TestProducts_FormsReturnToShop(t *testing.T) {
	page := view.Page{
		State:    view.State{Category: model.CategoryTShirts, Section: view.DefaultSection, CartOpen: true},
		Products: view.Products(allProducts(t), model.CategoryTShirts),
	}
	_, doc := render(t, view.ProductsTemplate, page)

	doc.Find(".product-card form").Each(func(_ int, f *goquery.Selection) {
		section, _ := f.Find(`input[name="section"]`).Attr("value")
		assert.Equal(t, view.ProductFormSection, section)
		category, _ := f.Find(`input[name="category"]`).Attr("value")
		assert.Equal(t, "tshirts", category)
		cart, _ := f.Find(`input[name="cart"]`).Attr("value")
		assert.Equal(t, "open", cart)
	})

	// フィルタのリンクは元のセクションのまま
	href, _ := doc.Find(".filter-btn").First().Attr("href")
	assert.Equal(t, "/?cart=open#home", href)
}

func TestCatalog_Cards(t *testing.T) {
	cards := view.Catalog([]model.Artwork{
		{ID: 1, Title: "Abstract Sunrise", Artist: "Maria Chen", Price: decimal.NewFromInt(1200), Image: "🌅"},
	})
	require.Len(t, cards, 1)
	assert.Equal(t, "1200.00", cards[0].Price)

	_, doc := render(t, view.PageTemplate, view.Page{
		State:    view.State{Section: "gallery"},
		Nav:      view.Nav("gallery"),
		Artworks: cards,
		Products: view.Products(nil, model.CategoryAll),
		Cart:     view.Cart(usecase.CartResponse{}),
	})
	item := doc.Find(".gallery-item")
	require.Equal(t, 1, item.Length())
	assert.Equal(t, "Abstract Sunrise", item.Find("h3").Text())
	assert.Equal(t, "by Maria Chen", item.Find(".artist").Text())
	assert.Equal(t, "$1200.00", item.Find(".price").Text())
}

func TestCart_EmptyState(t *testing.T) {
	v := view.Cart(usecase.CartResponse{})
	assert.True(t, v.Empty)
	assert.Equal(t, "0.00", v.Total)

	_, doc := render(t, view.CartTemplate, view.Page{Cart: v})
	assert.Equal(t, "Your cart is empty", doc.Find(".empty-cart").Text())
	assert.Equal(t, 0, doc.Find(".cart-item").Length())
	assert.Equal(t, "0.00", doc.Find("#cart-total").Text())
}

func TestCart_Rows(t *testing.T) {
	_, doc := render(t, view.CartTemplate, view.Page{Cart: view.Cart(sampleCart())})

	rows := doc.Find(".cart-item")
	require.Equal(t, 2, rows.Length())
	first := rows.First()
	assert.Equal(t, "Art Gallery T-Shirt", first.Find("h4").Text())
	assert.Equal(t, "2", first.Find(".quantity").Text())
	assert.Equal(t, "$59.98", first.Find(".subtotal").Text())

	action, _ := first.Find(".remove-btn").Closest("form").Attr("action")
	assert.Equal(t, "/cart/items/101/delete", action)

	assert.Equal(t, "79.97", doc.Find("#cart-total").Text())
	assert.Equal(t, "3", doc.Find("#cart-items-count").Text())
	assert.Equal(t, 0, doc.Find(".empty-cart").Length())
}

// Test: 同じカートを2回描いても同じ出力
func TestCart_RenderIsIdempotent(t *testing.T) {
	page := view.Page{Cart: view.Cart(sampleCart()), CSRFToken: "x"}
	a, _ := render(t, view.CartTemplate, page)
	b, _ := render(t, view.CartTemplate, page)
	assert.Equal(t, a, b)
}

func TestPage_NavAndOverlay(t *testing.T) {
	page := view.Page{
		State:         view.State{Category: model.CategoryAll, Section: "shop", CartOpen: true},
		Nav:           view.Nav("shop"),
		Products:      view.Products(allProducts(t), model.CategoryAll),
		Cart:          view.Cart(sampleCart()),
		NotifyDelayMS: 2000,
		Notices: []notify.Notice{
			{ID: 1, Kind: notify.KindToast, Message: "Item added to cart!"},
			{ID: 2, Kind: notify.KindAlert, Message: "Your cart is empty!"},
		},
	}
	_, doc := render(t, view.PageTemplate, page)

	active := doc.Find(".nav-link.active")
	require.Equal(t, 1, active.Length())
	assert.Equal(t, "Shop", active.Text())

	assert.Equal(t, "3", doc.Find("#cart-count").Text())
	assert.True(t, doc.Find("#cart-modal").HasClass("active"))

	closeHref, _ := doc.Find(".cart-backdrop").Attr("href")
	assert.Equal(t, "/?section=shop#shop", closeHref)

	assert.Equal(t, "Item added to cart!", doc.Find(".notification.toast").Text())
	assert.Equal(t, "Your cart is empty!", doc.Find(".alert-box p").Text())

	style, _ := doc.Find("body").Attr("style")
	assert.Contains(t, style, "2000ms")
}

func TestState_URL(t *testing.T) {
	assert.Equal(t, "/", view.State{}.URL())
	assert.Equal(t, "/#home", view.State{Section: "home"}.URL())
	assert.Equal(t, "/?cart=open&category=hoodies&section=shop#shop",
		view.State{Category: model.CategoryHoodies, Section: "shop", CartOpen: true}.URL())
}

func TestParseSection(t *testing.T) {
	assert.Equal(t, "gallery", view.ParseSection("gallery"))
	assert.Equal(t, view.DefaultSection, view.ParseSection("checkout"))
	assert.Equal(t, view.DefaultSection, view.ParseSection(""))
}
