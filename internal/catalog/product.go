package catalog

// Product is an immutable plant listing.
type Product struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	ScientificName string   `json:"scientificName" yaml:"scientific_name"`
	Price          float64  `json:"price" yaml:"price"`
	Image          string   `json:"image" yaml:"image"`
	Category       string   `json:"category" yaml:"category"`
	Description    string   `json:"description" yaml:"description"`
	Light          string   `json:"light" yaml:"light"`
	Water          string   `json:"water" yaml:"water"`
	Difficulty     string   `json:"difficulty" yaml:"difficulty"`
	Benefits       []string `json:"benefits" yaml:"benefits"`
	InStock        bool     `json:"inStock" yaml:"in_stock"`
}

// Filter narrows a catalog listing. Empty fields match everything.
type Filter struct {
	// Category matches case-insensitively; "all" is treated as empty.
	Category string
	// Search is a case-insensitive substring over name, scientific name and
	// description.
	Search string
}
