package domain

// Category is a top-level grocery category from the hub page
type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type SubcategoryStatus string

const (
	SubcategoryPending SubcategoryStatus = ""     // Stored as NULL
	SubcategoryDone    SubcategoryStatus = "done" // All products processed
)

// Subcategory belongs to exactly one Category. A category without a
// subcategory grid is stored as a single subcategory pointing at itself.
type Subcategory struct {
	ID              int64             `json:"id,omitempty"`
	CategoryName    string            `json:"category_name"`
	CategoryURL     string            `json:"category_url"`
	SubcategoryName string            `json:"subcategory_name"`
	SubcategoryURL  string            `json:"subcategory_url"`
	Status          SubcategoryStatus `json:"status,omitempty"`
}

// SelfSubcategory builds the self-referential subcategory used when a
// category page is already a product listing.
func SelfSubcategory(c Category) Subcategory {
	return Subcategory{
		CategoryName:    c.Name,
		CategoryURL:     c.URL,
		SubcategoryName: c.Name,
		SubcategoryURL:  c.URL,
	}
}

func (s Subcategory) IsDone() bool {
	return s.Status == SubcategoryDone
}
