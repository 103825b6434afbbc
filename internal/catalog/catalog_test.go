package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/greenleaf-shop/server/internal/core/error"
)

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 12, c.Len())

	money, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Money Plant", money.Name)
	assert.Equal(t, "Epipremnum aureum", money.ScientificName)
	assert.Equal(t, 299.0, money.Price)
	assert.True(t, money.InStock)
	assert.Len(t, money.Benefits, 4)

	assert.Equal(t, []string{"Indoor Plants", "Gifting", "Outdoor Plants", "Office Plants", "XL Plants"}, c.Categories())
}

func TestListFilters(t *testing.T) {
	c := MustDefault()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}},
		{"all wildcard", Filter{Category: "all"}, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}},
		{"category", Filter{Category: "Gifting"}, []string{"5", "7"}},
		{"category case-insensitive", Filter{Category: "xl plants"}, []string{"11"}},
		{"search by name", Filter{Search: "palm"}, []string{"3", "4"}},
		{"search by scientific name", Filter{Search: "EPIPREMNUM"}, []string{"1", "10"}},
		{"search and category", Filter{Category: "Indoor Plants", Search: "air purifier"}, []string{"3", "4", "6", "10", "12"}},
		{"no match", Filter{Search: "cactus"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(c.List(tt.filter)))
		})
	}
}

func TestGetUnknownProduct(t *testing.T) {
	_, err := MustDefault().Get("404")
	assert.ErrorIs(t, err, errx.ErrNotFound)
}

func TestListReturnsCopies(t *testing.T) {
	c := MustDefault()

	first := c.List(Filter{})
	first[0].Name = "changed"
	first[0].Benefits[0] = "changed"

	again, err := c.Get(first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Money Plant", again.Name)
	assert.Equal(t, "Vastu compliant", again.Benefits[0])
}

func TestNewRejectsInvalidProducts(t *testing.T) {
	_, err := New([]Product{{ID: "", Price: 10}})
	assert.Error(t, err)

	_, err = New([]Product{{ID: "a", Price: 10}, {ID: "a", Price: 20}})
	assert.Error(t, err)

	_, err = New([]Product{{ID: "a", Price: 0}})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.yaml")
	doc := `products:
  - id: cactus
    name: Golden Barrel
    scientific_name: Echinocactus grusonii
    price: 349
    category: Desert
    in_stock: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)

	p, err := c.Get("cactus")
	require.NoError(t, err)
	assert.Equal(t, "Echinocactus grusonii", p.ScientificName)
	assert.False(t, p.InStock)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
