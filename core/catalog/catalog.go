// Package catalog - Product catalog offered during registration
// Prices are canonical USD; display strings are derived per currency.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"rentaiagent/core/currency"
)

// PricingModel classifies how usage of a product is billed
type PricingModel string

const (
	// PerBatch bills a fixed price per batch of documents
	PerBatch PricingModel = "per_batch"
	// PerWord bills per 100 generated words
	PerWord PricingModel = "per_word"
	// PerAnalysis bills per analysis run
	PerAnalysis PricingModel = "per_analysis"
)

// Valid reports whether m is a known model
func (m PricingModel) Valid() bool {
	switch m {
	case PerBatch, PerWord, PerAnalysis:
		return true
	default:
		return false
	}
}

// Pricing is the usage price of a product
type Pricing struct {
	Model PricingModel `json:"model"`

	// BatchSize is the number of invoices per batch (PerBatch only)
	BatchSize int `json:"batch_size,omitempty"`

	// UnitPrice is the USD price per batch, per 100 words or per analysis
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Plan is a subscription tier of a product
type Plan struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	MonthlyFee decimal.Decimal `json:"monthly_fee"`

	// Discount is the advertised usage discount fraction. It is carried for
	// display and payloads only; no price computation applies it.
	Discount decimal.Decimal `json:"discount"`
}

// Label renders the plan name with its monthly fee in cur, omitting the
// fee for free plans.
func (p Plan) Label(cur currency.Currency) string {
	if p.MonthlyFee.IsPositive() {
		return fmt.Sprintf("%s (%s/month)", p.Name, cur.Format(p.MonthlyFee))
	}
	return p.Name
}

// Product is a catalog entry
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Pricing     Pricing `json:"pricing"`
	Plans       []Plan  `json:"plans"`
	DefaultPlan string  `json:"default_plan"`
}

// Plan looks up a plan by id
func (p Product) Plan(id string) (Plan, bool) {
	for _, plan := range p.Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return Plan{}, false
}

// Default returns the product's default plan
func (p Product) Default() Plan {
	if plan, ok := p.Plan(p.DefaultPlan); ok {
		return plan
	}
	return p.Plans[0]
}

// PriceString renders the usage price in cur
func (p Product) PriceString(cur currency.Currency) string {
	price := cur.Format(p.Pricing.UnitPrice)
	switch p.Pricing.Model {
	case PerBatch:
		return fmt.Sprintf("%s per %d invoices", price, p.Pricing.BatchSize)
	case PerWord:
		return fmt.Sprintf("%s per 100 words", price)
	case PerAnalysis:
		return fmt.Sprintf("%s per analysis", price)
	default:
		return ""
	}
}

// Catalog is an ordered, id-indexed product list
type Catalog struct {
	products []Product
	index    map[string]int
}

// New validates products and builds a catalog
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product with empty id")
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if !p.Pricing.Model.Valid() {
			return nil, fmt.Errorf("product %q: unknown pricing model %q", p.ID, p.Pricing.Model)
		}
		if len(p.Plans) == 0 {
			return nil, fmt.Errorf("product %q: no plans", p.ID)
		}
		if _, ok := p.Plan(p.DefaultPlan); !ok {
			return nil, fmt.Errorf("product %q: default plan %q not found", p.ID, p.DefaultPlan)
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Products returns the products in catalog order
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks up a product by id
func (c *Catalog) Product(id string) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

// DefaultProducts returns the built-in product list
func DefaultProducts() []Product {
	free := Plan{ID: "starter", Name: "Starter Plan", MonthlyFee: decimal.Zero, Discount: decimal.Zero}
	return []Product{
		{
			ID:          "invoice-processor",
			Name:        "Invoice Processor Agent",
			Description: "Automated invoice processing, extraction, and payment scheduling",
			Pricing:     Pricing{Model: PerBatch, BatchSize: 10, UnitPrice: decimal.RequireFromString("5.00")},
			Plans: []Plan{
				free,
				{ID: "professional", Name: "Professional Plan", MonthlyFee: decimal.NewFromInt(49), Discount: decimal.RequireFromString("0.20")},
				{ID: "enterprise", Name: "Enterprise Plan", MonthlyFee: decimal.NewFromInt(199), Discount: decimal.RequireFromString("0.40")},
			},
			DefaultPlan: "professional",
		},
		{
			ID:          "content-writer",
			Name:        "Content Writer Pro",
			Description: "AI-powered content creation for blogs, articles, and marketing",
			Pricing:     Pricing{Model: PerWord, UnitPrice: decimal.RequireFromString("0.05")},
			Plans:       []Plan{free},
			DefaultPlan: "starter",
		},
		{
			ID:          "data-analyst",
			Name:        "Data Analyst Expert",
			Description: "Advanced data analysis with visualizations and insights",
			Pricing:     Pricing{Model: PerAnalysis, UnitPrice: decimal.RequireFromString("2.00")},
			Plans:       []Plan{free},
			DefaultPlan: "starter",
		},
	}
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(DefaultProducts())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}
