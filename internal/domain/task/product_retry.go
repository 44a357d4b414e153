package task

type ProductRetryTask struct {
	ProductURL    string `json:"product_url"`              // Detail page that failed
	SubcategoryID int64  `json:"subcategory_id,omitempty"` // Set when found through a subcategory
	Keyword       string `json:"keyword,omitempty"`        // Set when found through search
	RetryCount    int    `json:"retry_count"`              // Number of replays so far
	Error         string `json:"error"`                    // Last failure
}

func (t *ProductRetryTask) TaskType() string {
	return "ProductRetryTask"
}

func (t *ProductRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
