package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"grocery/scraper/internal/domain"
)

// DefaultEmbeddedDataSelector locates the Next.js state blob on product pages.
const DefaultEmbeddedDataSelector = "script#__NEXT_DATA__"

// flexString accepts both JSON strings and numbers; ids show up as either.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*s = flexString(n.String())
	return nil
}

type nextData struct {
	Props *struct {
		PageProps *struct {
			InitialData *struct {
				Data *struct {
					Product *productPayload `json:"product"`
				} `json:"data"`
			} `json:"initialData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type productPayload struct {
	UsItemID       *flexString     `json:"usItemId"`
	UPC            *flexString     `json:"upc"`
	ID             *flexString     `json:"id"`
	Name           *string         `json:"name"`
	Category       *categoryInfo   `json:"category"`
	ImageInfo      *imageInfo      `json:"imageInfo"`
	Location       *locationInfo   `json:"location"`
	PriceInfo      *priceInfo      `json:"priceInfo"`
	ShippingOption *shippingOption `json:"shippingOption"`
}

type categoryInfo struct {
	Path *[]categoryNode `json:"path"`
}

type categoryNode struct {
	Name *string `json:"name"`
}

type imageInfo struct {
	ThumbnailURL *string `json:"thumbnailUrl"`
}

type locationInfo struct {
	StoreIDs []flexString `json:"storeIds"`
	City     *string      `json:"city"`
}

type priceInfo struct {
	CurrentPrice *priceNode `json:"currentPrice"`
	WasPrice     *priceNode `json:"wasPrice"`
}

type priceNode struct {
	PriceString *string `json:"priceString"`
}

type shippingOption struct {
	AvailabilityStatus *string `json:"availabilityStatus"`
}

// wasPriceOr returns the "was" price, or fallback when the product is not
// marked down.
func (p *priceInfo) wasPriceOr(fallback string) string {
	if p.WasPrice == nil || p.WasPrice.PriceString == nil || *p.WasPrice.PriceString == "" {
		return fallback
	}
	return *p.WasPrice.PriceString
}

func missingKey(path string) error {
	return fmt.Errorf("%w: missing %s", domain.ErrMalformedPage, path)
}

// ExtractProduct builds a product record from a product page's source. The
// record's URL is always pageURL, whatever the payload claims.
func ExtractProduct(html, pageURL string) (*domain.ProductRecord, error) {
	return extractProduct(NewPage(pageURL, html), DefaultEmbeddedDataSelector)
}

func extractProduct(page *Page, selector string) (*domain.ProductRecord, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPage, err)
	}

	script := doc.Find(selector).First()
	if script.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q on %s", domain.ErrMalformedPage, selector, page.URL)
	}

	var data nextData
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		return nil, fmt.Errorf("%w: embedded data on %s: %v", domain.ErrMalformedPage, page.URL, err)
	}

	switch {
	case data.Props == nil:
		return nil, missingKey("props")
	case data.Props.PageProps == nil:
		return nil, missingKey("props.pageProps")
	case data.Props.PageProps.InitialData == nil:
		return nil, missingKey("props.pageProps.initialData")
	case data.Props.PageProps.InitialData.Data == nil:
		return nil, missingKey("props.pageProps.initialData.data")
	case data.Props.PageProps.InitialData.Data.Product == nil:
		return nil, missingKey("props.pageProps.initialData.data.product")
	}

	return data.Props.PageProps.InitialData.Data.Product.record(page.URL)
}

func (p *productPayload) record(pageURL string) (*domain.ProductRecord, error) {
	switch {
	case p.UsItemID == nil:
		return nil, missingKey("product.usItemId")
	case p.UPC == nil:
		return nil, missingKey("product.upc")
	case p.ID == nil:
		return nil, missingKey("product.id")
	case p.Name == nil:
		return nil, missingKey("product.name")
	case p.Category == nil || p.Category.Path == nil:
		return nil, missingKey("product.category.path")
	case p.ImageInfo == nil || p.ImageInfo.ThumbnailURL == nil:
		return nil, missingKey("product.imageInfo.thumbnailUrl")
	case p.Location == nil || len(p.Location.StoreIDs) == 0:
		return nil, missingKey("product.location.storeIds[0]")
	case p.Location.City == nil:
		return nil, missingKey("product.location.city")
	case p.PriceInfo == nil || p.PriceInfo.CurrentPrice == nil || p.PriceInfo.CurrentPrice.PriceString == nil:
		return nil, missingKey("product.priceInfo.currentPrice.priceString")
	case p.ShippingOption == nil || p.ShippingOption.AvailabilityStatus == nil:
		return nil, missingKey("product.shippingOption.availabilityStatus")
	}

	categories := make([]string, 0, len(*p.Category.Path))
	for i, node := range *p.Category.Path {
		if node.Name == nil {
			return nil, missingKey(fmt.Sprintf("product.category.path[%d].name", i))
		}
		categories = append(categories, strings.TrimSpace(*node.Name))
	}

	price := *p.PriceInfo.CurrentPrice.PriceString

	return &domain.ProductRecord{
		ItemID:        string(*p.UsItemID),
		UPC:           string(*p.UPC),
		ProductID:     string(*p.ID),
		URL:           pageURL,
		Name:          *p.Name,
		Categories:    categories,
		Image:         *p.ImageInfo.ThumbnailURL,
		StoreID:       string(p.Location.StoreIDs[0]),
		StoreLocation: *p.Location.City,
		Price:         price,
		MRP:           p.PriceInfo.wasPriceOr(price),
		Availability:  *p.ShippingOption.AvailabilityStatus,
		Size:          ExtractSize(*p.Name),
	}, nil
}
