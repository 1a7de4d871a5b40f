package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type document struct {
	Artworks []model.Artwork `yaml:"artworks"`
	Products []model.Product `yaml:"products"`
}

// YAMLから読み込んだ固定カタログ。読み取り専用なのでロック不要。
type YAMLCatalog struct {
	artworks []model.Artwork
	products []model.Product
	byID     map[int64]int
}

var _ repo.CatalogRepository = (*YAMLCatalog)(nil)

// 同梱のカタログ
func Default() (*YAMLCatalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// pathが空なら同梱のカタログを使う
func Open(path string) (*YAMLCatalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func Load(r io.Reader) (*YAMLCatalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode catalog: empty document")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Artworks, doc.Products)
}

// テストや別カタログ用。idは作品・商品を通して一意であること。
func New(artworks []model.Artwork, products []model.Product) (*YAMLCatalog, error) {
	seen := make(map[int64]string, len(artworks)+len(products))

	for _, a := range artworks {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if prev, ok := seen[a.ID]; ok {
			return nil, fmt.Errorf("duplicate id %d (%s)", a.ID, prev)
		}
		seen[a.ID] = "artwork"
	}

	byID := make(map[int64]int, len(products))
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if prev, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("duplicate id %d (%s)", p.ID, prev)
		}
		seen[p.ID] = "product"
		byID[p.ID] = i
	}

	return &YAMLCatalog{
		artworks: append([]model.Artwork(nil), artworks...),
		products: append([]model.Product(nil), products...),
		byID:     byID,
	}, nil
}

func (c *YAMLCatalog) ListArtworks(ctx context.Context) ([]model.Artwork, error) {
	out := make([]model.Artwork, len(c.artworks))
	copy(out, c.artworks)
	return out, nil
}

func (c *YAMLCatalog) ListProducts(ctx context.Context, filter model.Category) ([]model.Product, error) {
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.Matches(filter) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *YAMLCatalog) FindProductByID(ctx context.Context, id int64) (model.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return c.products[i], nil
}
