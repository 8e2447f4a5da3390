package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rentaiagent/core/wizard"
	"rentaiagent/internal/config"
	"rentaiagent/internal/logging"
)

var (
	catalogCountry string
	catalogJSON    bool
)

// catalogCmd lists the products in a local currency
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List products with prices in your currency",
	Long: `List the product catalog with usage prices and plan fees converted
from USD into the currency of --country.

Examples:
  rentai catalog
  rentai catalog --country JP
  rentai catalog --country GB --json`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

// currencyCmd resolves a country's currency
var currencyCmd = &cobra.Command{
	Use:   "currency <country> [amount-usd]",
	Short: "Show the currency for a country and convert a USD amount",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCurrency,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(currencyCmd)

	catalogCmd.Flags().StringVarP(&catalogCountry, "country", "c", "", "ISO country code (default USD prices)")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print JSON")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(config.Get(), logging.Logger)
	if err != nil {
		return err
	}

	s := rt.wizard.SetCountry(wizard.NewState(), catalogCountry)
	s.Step = wizard.StepProducts
	view := rt.wizard.ActiveView(s)

	if catalogJSON {
		return printJSON(cmd.OutOrStdout(), view)
	}

	w := newWriter(cmd.OutOrStdout())
	w.SubHeader(view.CurrencyLabel)
	w.Blank()
	for _, item := range view.Grid {
		w.SubHeader(fmt.Sprintf("%s (%s)", item.Name, item.ProductID))
		if item.Description != "" {
			w.Detail("%s", item.Description)
		}
		w.Println("  Usage: %s", item.Price)
		for _, p := range item.Plans {
			w.Println("  - %-14s %s", p.ID, p.Label)
		}
		w.Blank()
	}
	return nil
}

func runCurrency(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(config.Get(), logging.Logger)
	if err != nil {
		return err
	}

	amount := decimal.NewFromInt(1)
	if len(args) == 2 {
		if amount, err = decimal.NewFromString(args[1]); err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
	}

	cur := rt.currencies.Resolve(args[0])
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Country:  %s\n", wizard.CountryName(args[0]))
	fmt.Fprintf(out, "Currency: %s\n", cur.Label())
	fmt.Fprintf(out, "Rate:     1 USD = %s %s\n", cur.Rate.String(), cur.Code)
	fmt.Fprintf(out, "%s USD = %s\n", amount.StringFixed(2), cur.Format(amount))
	return nil
}
