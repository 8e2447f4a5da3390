package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"rentaiagent/core/currency"
)

func TestDefaultCatalogShape(t *testing.T) {
	c := Default()
	if c.Len() != 3 {
		t.Fatalf("expected 3 products, got %d", c.Len())
	}

	ip, ok := c.Product("invoice-processor")
	if !ok {
		t.Fatal("invoice-processor missing")
	}
	if got := ip.Default(); got.ID != "professional" || !got.MonthlyFee.Equal(decimal.NewFromInt(49)) {
		t.Errorf("default plan = %+v", got)
	}
	if _, ok := ip.Plan("enterprise"); !ok {
		t.Error("enterprise plan missing")
	}
	if _, ok := c.Product("nope"); ok {
		t.Error("unknown product should not resolve")
	}

	order := []string{"invoice-processor", "content-writer", "data-analyst"}
	for i, p := range c.Products() {
		if p.ID != order[i] {
			t.Errorf("product %d = %s, want %s", i, p.ID, order[i])
		}
	}
}

func TestPriceStrings(t *testing.T) {
	c := Default()
	usd := currency.Resolve("US")
	jpy := currency.Resolve("JP")

	cases := []struct {
		id   string
		cur  currency.Currency
		want string
	}{
		{"invoice-processor", usd, "$5.00 per 10 invoices"},
		{"content-writer", usd, "$0.05 per 100 words"},
		{"data-analyst", usd, "$2.00 per analysis"},
		{"invoice-processor", jpy, "¥750 per 10 invoices"},
		{"data-analyst", jpy, "¥300 per analysis"},
	}
	for _, tc := range cases {
		p, _ := c.Product(tc.id)
		if got := p.PriceString(tc.cur); got != tc.want {
			t.Errorf("%s in %s = %q, want %q", tc.id, tc.cur.Code, got, tc.want)
		}
	}
}

func TestPlanLabel(t *testing.T) {
	p, _ := Default().Product("invoice-processor")
	gbp := currency.Resolve("GB")

	starter, _ := p.Plan("starter")
	if got := starter.Label(gbp); got != "Starter Plan" {
		t.Errorf("free plan label = %q", got)
	}
	pro, _ := p.Plan("professional")
	if got := pro.Label(gbp); got != "Professional Plan (£38.71/month)" {
		t.Errorf("paid plan label = %q", got)
	}
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	base := DefaultProducts()

	dup := append(DefaultProducts(), base[0])
	if _, err := New(dup); err == nil {
		t.Error("expected duplicate id error")
	}

	badDefault := DefaultProducts()
	badDefault[1].DefaultPlan = "platinum"
	if _, err := New(badDefault); err == nil {
		t.Error("expected missing default plan error")
	}

	badModel := DefaultProducts()
	badModel[2].Pricing.Model = "per_hour"
	if _, err := New(badModel); err == nil {
		t.Error("expected unknown pricing model error")
	}
}

func TestLoadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	src := `
product "invoice-processor" {
  name         = "Invoice Processor Agent"
  description  = "Automated invoice processing"
  default_plan = "professional"

  pricing {
    model      = "per_batch"
    batch_size = 25
    price      = 7.50
  }

  plan "starter" {
    name = "Starter Plan"
  }

  plan "professional" {
    name        = "Professional Plan"
    monthly_fee = 59
    discount    = 0.25
  }
}

product "data-analyst" {
  name         = "Data Analyst Expert"
  default_plan = "starter"

  pricing {
    model = "per_analysis"
    price = 2.00
  }

  plan "starter" {
    name = "Starter Plan"
  }
}
`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadHCL(path)
	if err != nil {
		t.Fatalf("LoadHCL: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", c.Len())
	}

	ip, _ := c.Product("invoice-processor")
	if got := ip.PriceString(currency.USD); got != "$7.50 per 25 invoices" {
		t.Errorf("price string = %q", got)
	}
	pro := ip.Default()
	if !pro.MonthlyFee.Equal(decimal.NewFromInt(59)) || !pro.Discount.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("professional plan = %+v", pro)
	}
	starter, _ := ip.Plan("starter")
	if !starter.MonthlyFee.IsZero() {
		t.Errorf("absent monthly_fee should be zero, got %s", starter.MonthlyFee)
	}
}

func TestLoadHCLRequiresPricing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	src := `
product "x" {
  name         = "X"
  default_plan = "starter"
  plan "starter" {
    name = "Starter Plan"
  }
}
`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHCL(path); err == nil {
		t.Fatal("expected missing pricing error")
	}
}
