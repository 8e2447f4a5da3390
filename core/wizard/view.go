package wizard

import (
	"fmt"
	"strings"

	"rentaiagent/core/currency"
)

// ViewKind identifies which price-bearing view the active step shows
type ViewKind string

const (
	ViewNone             ViewKind = "none"
	ViewProductGrid      ViewKind = "product_grid"
	ViewSelectionSummary ViewKind = "selection_summary"
	ViewReview           ViewKind = "review"
)

// NoProductsNote is shown when nothing is selected
const NoProductsNote = "No products selected - You can add them later from your dashboard"

// PlanOption is a selectable plan in the product grid
type PlanOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GridItem is one product card on step 2
type GridItem struct {
	ProductID    string       `json:"product_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Price        string       `json:"price"`
	Plans        []PlanOption `json:"plans"`
	Selected     bool         `json:"selected"`
	SelectedPlan string       `json:"selected_plan,omitempty"`
	Disabled     bool         `json:"disabled"`
}

// SummaryItem is one selected product as shown on steps 3 and 4
type SummaryItem struct {
	Name       string `json:"name"`
	PlanName   string `json:"plan_name"`
	MonthlyFee string `json:"monthly_fee,omitempty"`
	Price      string `json:"price"`
}

// Review is the step-4 summary
type Review struct {
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Company      string        `json:"company"`
	Country      string        `json:"country"`
	Products     []SummaryItem `json:"products"`
	ProductsNote string        `json:"products_note,omitempty"`
	Payment      string        `json:"payment"`
	CurrencyLine string        `json:"currency_line"`
}

// View is the rendered content of the active step
type View struct {
	Kind          ViewKind      `json:"kind"`
	CurrencyLabel string        `json:"currency_label"`
	Grid          []GridItem    `json:"grid,omitempty"`
	Summary       []SummaryItem `json:"summary,omitempty"`
	SummaryNote   string        `json:"summary_note,omitempty"`
	Review        *Review       `json:"review,omitempty"`
}

var countryNames = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"AU": "Australia",
	"DE": "Germany",
	"FR": "France",
	"IN": "India",
	"JP": "Japan",
}

// CountryName returns the display name of a country code, or the code
// itself when unknown.
func CountryName(code string) string {
	if name, ok := countryNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// CurrencyLabel renders "Prices in CODE (Name)"
func CurrencyLabel(cur currency.Currency) string {
	return "Prices in " + cur.Label()
}

// CurrencyNote is the step-1 hint under the country field
func CurrencyNote(s State) string {
	if s.Field(FieldCountry) == "" {
		return "Please select your country to see prices in your local currency"
	}
	return "Prices will be displayed in " + s.Currency.Label()
}

// PaymentSummary renders the card line of the review
func PaymentSummary(s State) string {
	card := stripSpaces(s.Field(FieldCardNumber))
	if s.PaymentOption() != PayNow || card == "" {
		return "Will provide later"
	}
	if len(card) > 4 {
		card = card[len(card)-4:]
	}
	return "Card ending in " + card
}

// ActiveView renders whichever view the current step shows, priced in the
// state's currency. Callers re-render after every currency change.
func (w *Wizard) ActiveView(s State) View {
	v := View{Kind: ViewNone, CurrencyLabel: CurrencyLabel(s.Currency)}
	switch s.Step {
	case StepProducts:
		v.Kind = ViewProductGrid
		v.Grid = w.grid(s)
	case StepPayment:
		v.Kind = ViewSelectionSummary
		v.Summary = summary(s)
		if len(v.Summary) == 0 {
			v.SummaryNote = NoProductsNote
		}
	case StepReview:
		v.Kind = ViewReview
		v.Review = w.review(s)
	}
	return v
}

func (w *Wizard) grid(s State) []GridItem {
	products := w.catalog.Products()
	items := make([]GridItem, 0, len(products))
	for _, p := range products {
		item := GridItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.PriceString(s.Currency),
			Disabled:    s.SkipProducts,
		}
		for _, plan := range p.Plans {
			item.Plans = append(item.Plans, PlanOption{ID: plan.ID, Label: plan.Label(s.Currency)})
		}
		if i := s.selectionIndex(p.ID); i >= 0 {
			item.Selected = true
			item.SelectedPlan = s.Selections[i].PlanID
		}
		items = append(items, item)
	}
	return items
}

func summary(s State) []SummaryItem {
	if s.SkipProducts {
		return nil
	}
	items := make([]SummaryItem, 0, len(s.Selections))
	for _, sel := range s.Selections {
		item := SummaryItem{Name: sel.Name, PlanName: sel.PlanName, Price: sel.Price}
		if sel.MonthlyFeeUSD.IsPositive() {
			item.MonthlyFee = s.Currency.Format(sel.MonthlyFeeUSD)
		}
		items = append(items, item)
	}
	return items
}

func (w *Wizard) review(s State) *Review {
	country := CountryName(s.Field(FieldCountry))
	r := &Review{
		Email:        s.Field(FieldEmail),
		Name:         s.Field(FieldName),
		Company:      s.Field(FieldCompanyName),
		Country:      country,
		Products:     summary(s),
		Payment:      PaymentSummary(s),
		CurrencyLine: fmt.Sprintf("All prices in %s - %s", s.Currency.Label(), country),
	}
	if len(r.Products) == 0 {
		r.ProductsNote = NoProductsNote
	}
	return r
}
