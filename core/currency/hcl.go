package currency

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"go.uber.org/zap"

	"rentaiagent/internal/hclutil"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "currency", LabelNames: []string{"country"}},
	},
}

var blockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "code", Required: true},
		{Name: "symbol", Required: true},
		{Name: "name", Required: true},
		{Name: "rate", Required: true},
	},
}

// LoadHCL reads a currency table from an HCL file of the form
//
//	currency "JP" {
//	  code   = "JPY"
//	  symbol = "¥"
//	  name   = "Japanese Yen"
//	  rate   = 150.0
//	}
//
// US is always present; a file may override it.
func LoadHCL(path string, logger *zap.Logger) (*Table, error) {
	content, err := hclutil.ParseFile(path, fileSchema)
	if err != nil {
		return nil, fmt.Errorf("load currency table %s: %w", path, err)
	}

	entries := map[string]Currency{"US": USD}
	for _, block := range content.Blocks {
		cur, err := decodeCurrency(block)
		if err != nil {
			return nil, fmt.Errorf("currency %q: %w", block.Labels[0], err)
		}
		entries[normalizeCountry(block.Labels[0])] = cur
	}
	return NewTable(entries, logger), nil
}

func decodeCurrency(block *hcl.Block) (Currency, error) {
	content, err := hclutil.Attributes(block, blockSchema)
	if err != nil {
		return Currency{}, err
	}

	var cur Currency
	if cur.Code, err = hclutil.String(content.Attributes, "code"); err != nil {
		return Currency{}, err
	}
	if cur.Symbol, err = hclutil.String(content.Attributes, "symbol"); err != nil {
		return Currency{}, err
	}
	if cur.Name, err = hclutil.String(content.Attributes, "name"); err != nil {
		return Currency{}, err
	}
	if cur.Rate, err = hclutil.Decimal(content.Attributes, "rate"); err != nil {
		return Currency{}, err
	}
	if !cur.Rate.IsPositive() {
		return Currency{}, fmt.Errorf("rate must be positive, got %s", cur.Rate)
	}
	return cur, nil
}
