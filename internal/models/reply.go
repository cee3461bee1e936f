// internal/models/reply.go
package models

// BusinessView is the business projection returned to clients.
type BusinessView struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ProductView is the product projection returned to clients.
type ProductView struct {
	Name     string       `json:"name"`
	Price    float64      `json:"price"`
	Unit     string       `json:"unit"`
	Category string       `json:"category"`
	Business BusinessView `json:"business"`
}

// Reply is the assistant's answer to one utterance.
type Reply struct {
	Reply      string         `json:"reply"`
	Intent     Intent         `json:"intent"`
	Products   []ProductView  `json:"products"`
	Businesses []BusinessView `json:"businesses,omitempty"`
	Truncated  bool           `json:"truncated"`
}

// NewBusinessView projects a catalog business.
func NewBusinessView(b Business) BusinessView {
	return BusinessView{Name: b.Name, Phone: b.Phone, Address: b.Address}
}
