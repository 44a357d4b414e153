package client

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"grocery/scraper/internal/domain"

	"github.com/stretchr/testify/require"
)

const productURL = "https://www.walmart.com/ip/Marketside-Italian-Bread-16-oz/10315396"

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

// productPage wraps a mutated copy of the fixture payload in a page.
func productPage(t *testing.T, mutate func(product map[string]interface{})) string {
	t.Helper()

	html := loadFixture(t, "product.html")
	start := strings.Index(html, `{"props"`)
	end := strings.LastIndex(html, "</script>")
	require.True(t, start > 0 && end > start)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(html[start:end]), &data))

	product := data["props"].(map[string]interface{})["pageProps"].(map[string]interface{})["initialData"].(map[string]interface{})["data"].(map[string]interface{})["product"].(map[string]interface{})
	mutate(product)

	payload, err := json.Marshal(data)
	require.NoError(t, err)
	return html[:start] + string(payload) + html[end:]
}

func TestExtractProduct(t *testing.T) {
	record, err := ExtractProduct(loadFixture(t, "product.html"), productURL)
	require.NoError(t, err)

	require.Equal(t, &domain.ProductRecord{
		ItemID:        "10315396",
		UPC:           "681131092157",
		ProductID:     "5TXSYQXAJA3L",
		URL:           productURL,
		Name:          "Marketside Italian Bread, 16 oz",
		Categories:    []string{"Food", "Bakery & Bread", "Breads"},
		Image:         "https://i5.walmartimages.com/asr/bread.jpeg",
		StoreID:       "5260",
		StoreLocation: "Sacramento",
		Price:         "$4.99",
		MRP:           "$3.99",
		Availability:  "IN_STOCK",
		Size:          "16 oz",
	}, record)
	require.Empty(t, record.Discount)
	require.Empty(t, record.Keyword)
}

func TestExtractProductWithoutWasPrice(t *testing.T) {
	html := productPage(t, func(product map[string]interface{}) {
		delete(product["priceInfo"].(map[string]interface{}), "wasPrice")
	})

	record, err := ExtractProduct(html, productURL)
	require.NoError(t, err)
	require.Equal(t, "$4.99", record.Price)
	require.Equal(t, "$4.99", record.MRP)
	require.False(t, record.IsMarkedDown())
}

func TestExtractProductNullWasPrice(t *testing.T) {
	html := productPage(t, func(product map[string]interface{}) {
		product["priceInfo"].(map[string]interface{})["wasPrice"] = nil
	})

	record, err := ExtractProduct(html, productURL)
	require.NoError(t, err)
	require.Equal(t, record.Price, record.MRP)
}

func TestExtractProductNumericIDs(t *testing.T) {
	html := productPage(t, func(product map[string]interface{}) {
		product["usItemId"] = 10315396
		product["location"].(map[string]interface{})["storeIds"] = []interface{}{5260, 100}
	})

	record, err := ExtractProduct(html, productURL)
	require.NoError(t, err)
	require.Equal(t, "10315396", record.ItemID)
	require.Equal(t, "5260", record.StoreID)
}

func TestExtractProductUsesInputURL(t *testing.T) {
	html := productPage(t, func(product map[string]interface{}) {
		product["canonicalUrl"] = "/ip/something-else/999"
	})

	record, err := ExtractProduct(html, productURL)
	require.NoError(t, err)
	require.Equal(t, productURL, record.URL)
}

func TestExtractProductMissingKeys(t *testing.T) {
	type product = map[string]interface{}

	cases := []struct {
		name   string
		mutate func(p product)
	}{
		{"usItemId", func(p product) { delete(p, "usItemId") }},
		{"upc", func(p product) { delete(p, "upc") }},
		{"name", func(p product) { delete(p, "name") }},
		{"category", func(p product) { delete(p, "category") }},
		{"category.path", func(p product) { p["category"] = product{} }},
		{"path name", func(p product) {
			p["category"] = product{"path": []interface{}{product{"url": "/cp/food"}}}
		}},
		{"thumbnail", func(p product) { p["imageInfo"] = product{} }},
		{"storeIds empty", func(p product) { p["location"].(product)["storeIds"] = []interface{}{} }},
		{"city", func(p product) { delete(p["location"].(product), "city") }},
		{"current price", func(p product) { delete(p["priceInfo"].(product), "currentPrice") }},
		{"availability", func(p product) { delete(p, "shippingOption") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractProduct(productPage(t, tc.mutate), productURL)
			require.ErrorIs(t, err, domain.ErrMalformedPage)
		})
	}
}

func TestExtractProductMalformedPages(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{"no script", `<html><body><h1>Bread</h1></body></html>`},
		{"bad json", `<html><body><script id="__NEXT_DATA__">{"props":</script></body></html>`},
		{"no product", `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"initialData":{"data":{}}}}}</script></body></html>`},
		{"no props", `<html><body><script id="__NEXT_DATA__">{}</script></body></html>`},
		{"null data", `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"initialData":{"data":null}}}}</script></body></html>`},
		{"other script", `<html><body><script id="other">{"props":{}}</script></body></html>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := ExtractProduct(tc.html, productURL)
			require.ErrorIs(t, err, domain.ErrMalformedPage)
			require.Nil(t, record)
		})
	}
}
