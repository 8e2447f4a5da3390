// Package hclutil reads the HCL override files for the catalog and the
// currency table.
package hclutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
)

// ParseFile parses an HCL file and returns its body content for schema.
func ParseFile(path string, schema *hcl.BodySchema) (*hcl.BodyContent, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(src, path, schema)
}

// Parse parses HCL source named filename and returns its body content for schema.
func Parse(src []byte, filename string, schema *hcl.BodySchema) (*hcl.BodyContent, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	content, diags := file.Body.Content(schema)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	return content, nil
}

// Attributes returns the attributes of block checked against schema.
func Attributes(block *hcl.Block, schema *hcl.BodySchema) (*hcl.BodyContent, error) {
	content, diags := block.Body.Content(schema)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	return content, nil
}

// String evaluates a string attribute. Absent attributes yield "".
func String(attrs hcl.Attributes, name string) (string, error) {
	v, ok, err := value(attrs, name, cty.String)
	if err != nil || !ok {
		return "", err
	}
	return v.AsString(), nil
}

// Decimal evaluates a numeric attribute exactly. Absent attributes yield zero.
func Decimal(attrs hcl.Attributes, name string) (decimal.Decimal, error) {
	v, ok, err := value(attrs, name, cty.Number)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v.AsBigFloat().Text('f', -1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// Int evaluates an integer attribute. Absent attributes yield zero.
func Int(attrs hcl.Attributes, name string) (int, error) {
	d, err := Decimal(attrs, name)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%s: expected a whole number, got %s", name, d)
	}
	return int(d.IntPart()), nil
}

func value(attrs hcl.Attributes, name string, want cty.Type) (cty.Value, bool, error) {
	attr, ok := attrs[name]
	if !ok {
		return cty.NilVal, false, nil
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, false, diagError(diags)
	}
	if v.IsNull() {
		return cty.NilVal, false, nil
	}
	if !v.IsKnown() || !v.Type().Equals(want) {
		return cty.NilVal, false, fmt.Errorf("%s: expected %s, got %s", name, want.FriendlyName(), v.Type().FriendlyName())
	}
	return v, true, nil
}

func diagError(diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		msg := diag.Summary
		if diag.Detail != "" {
			msg += ": " + diag.Detail
		}
		if diag.Subject != nil {
			msg = fmt.Sprintf("%s:%d: %s", diag.Subject.Filename, diag.Subject.Start.Line, msg)
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
