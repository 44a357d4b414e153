package domain

// ProductStub is a product reference taken from a listing page.
type ProductStub struct {
	Name string `json:"product_name"`
	URL  string `json:"product_url"`
}

// ProductRecord is the normalized product extracted from a detail page.
// Discount and Keyword are never filled by the page extractor.
type ProductRecord struct {
	ItemID        string   `json:"item_id"`
	UPC           string   `json:"upc"`
	ProductID     string   `json:"product_id"`
	URL           string   `json:"url"`
	Name          string   `json:"name"`
	Categories    []string `json:"categories"`
	Image         string   `json:"image"`
	StoreID       string   `json:"store_id"`
	StoreLocation string   `json:"store_location"`
	Price         string   `json:"price"`
	MRP           string   `json:"mrp"`
	Discount      string   `json:"discount,omitempty"`
	Availability  string   `json:"availability"`
	Keyword       string   `json:"keyword,omitempty"`
	Size          string   `json:"size"`
}

// IsMarkedDown reports whether the product carries a "was" price different
// from its current price.
func (p *ProductRecord) IsMarkedDown() bool {
	return p.MRP != "" && p.MRP != p.Price
}
