package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	errx "github.com/greenleaf-shop/server/internal/core/error"
)

//go:embed data/plants.yaml
var defaultPlants []byte

// AllCategories is the wildcard category value sent by the shop filter.
const AllCategories = "all"

// Catalog is a read-only, ordered list of products.
type Catalog struct {
	products []Product
	byID     map[string]int
}

type document struct {
	Products []Product `yaml:"products"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultPlants)
}

// MustDefault is Default for program start-up.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a catalog from a YAML file with the same layout as the
// bundled data.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document and validates every product.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Products)
}

// New builds a catalog from products in display order.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("product at index %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("product %q has non-positive price", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, cloneProduct(p))
	}
	return c, nil
}

// List returns the products matching f in catalog order.
func (c *Catalog) List(f Filter) []Product {
	category := strings.TrimSpace(f.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if term != "" && !matches(p, term) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out
}

// Get returns the product with id or a NotFound error.
func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, errx.NotFound("product not found")
	}
	return cloneProduct(c.products[i]), nil
}

// Categories lists distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

func matches(p Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.ScientificName), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func cloneProduct(p Product) Product {
	if p.Benefits != nil {
		p.Benefits = append([]string(nil), p.Benefits...)
	}
	return p
}
