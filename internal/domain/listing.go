package domain

// ListingEntry is a single anchor found inside a listing container.
type ListingEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ProbeKind int

const (
	ProbeHasSubcategories ProbeKind = iota // Category page lists subcategories
	ProbeProductPage                       // Category page is itself a product listing
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeHasSubcategories:
		return "has_subcategories"
	case ProbeProductPage:
		return "product_page"
	default:
		return "unknown"
	}
}

// CategoryProbe is the result of inspecting a category page. Entries is only
// populated for ProbeHasSubcategories.
type CategoryProbe struct {
	Kind    ProbeKind      `json:"kind"`
	Entries []ListingEntry `json:"entries,omitempty"`
}

// SearchPage is one page of keyword search results.
type SearchPage struct {
	Keyword    string        `json:"keyword"`
	PageNumber int           `json:"page_number"`
	Products   []ProductStub `json:"products"`
}
