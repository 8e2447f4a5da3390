package catalog

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"rentaiagent/internal/hclutil"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "product", LabelNames: []string{"id"}},
	},
}

var productSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name", Required: true},
		{Name: "description"},
		{Name: "default_plan", Required: true},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "pricing"},
		{Type: "plan", LabelNames: []string{"id"}},
	},
}

var pricingSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "model", Required: true},
		{Name: "batch_size"},
		{Name: "price", Required: true},
	},
}

var planSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name", Required: true},
		{Name: "monthly_fee"},
		{Name: "discount"},
	},
}

// LoadHCL reads a catalog from an HCL file:
//
//	product "invoice-processor" {
//	  name         = "Invoice Processor Agent"
//	  default_plan = "professional"
//	  pricing {
//	    model      = "per_batch"
//	    batch_size = 10
//	    price      = 5.00
//	  }
//	  plan "professional" {
//	    name        = "Professional Plan"
//	    monthly_fee = 49
//	    discount    = 0.20
//	  }
//	}
//
// Products keep file order.
func LoadHCL(path string) (*Catalog, error) {
	content, err := hclutil.ParseFile(path, fileSchema)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	products := make([]Product, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		p, err := decodeProduct(block)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", block.Labels[0], err)
		}
		products = append(products, p)
	}
	return New(products)
}

func decodeProduct(block *hcl.Block) (Product, error) {
	content, err := hclutil.Attributes(block, productSchema)
	if err != nil {
		return Product{}, err
	}

	p := Product{ID: block.Labels[0]}
	if p.Name, err = hclutil.String(content.Attributes, "name"); err != nil {
		return Product{}, err
	}
	if p.Description, err = hclutil.String(content.Attributes, "description"); err != nil {
		return Product{}, err
	}
	if p.DefaultPlan, err = hclutil.String(content.Attributes, "default_plan"); err != nil {
		return Product{}, err
	}

	var sawPricing bool
	for _, inner := range content.Blocks {
		switch inner.Type {
		case "pricing":
			if sawPricing {
				return Product{}, fmt.Errorf("more than one pricing block")
			}
			sawPricing = true
			if p.Pricing, err = decodePricing(inner); err != nil {
				return Product{}, err
			}
		case "plan":
			plan, err := decodePlan(inner)
			if err != nil {
				return Product{}, fmt.Errorf("plan %q: %w", inner.Labels[0], err)
			}
			p.Plans = append(p.Plans, plan)
		}
	}
	if !sawPricing {
		return Product{}, fmt.Errorf("missing pricing block")
	}
	return p, nil
}

func decodePricing(block *hcl.Block) (Pricing, error) {
	content, err := hclutil.Attributes(block, pricingSchema)
	if err != nil {
		return Pricing{}, err
	}

	var pr Pricing
	model, err := hclutil.String(content.Attributes, "model")
	if err != nil {
		return Pricing{}, err
	}
	pr.Model = PricingModel(model)
	if pr.BatchSize, err = hclutil.Int(content.Attributes, "batch_size"); err != nil {
		return Pricing{}, err
	}
	if pr.UnitPrice, err = hclutil.Decimal(content.Attributes, "price"); err != nil {
		return Pricing{}, err
	}
	if pr.Model == PerBatch && pr.BatchSize <= 0 {
		return Pricing{}, fmt.Errorf("per_batch pricing needs a positive batch_size")
	}
	return pr, nil
}

func decodePlan(block *hcl.Block) (Plan, error) {
	content, err := hclutil.Attributes(block, planSchema)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{ID: block.Labels[0]}
	if plan.Name, err = hclutil.String(content.Attributes, "name"); err != nil {
		return Plan{}, err
	}
	if plan.MonthlyFee, err = hclutil.Decimal(content.Attributes, "monthly_fee"); err != nil {
		return Plan{}, err
	}
	if plan.Discount, err = hclutil.Decimal(content.Attributes, "discount"); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
