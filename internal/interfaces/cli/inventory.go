package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	inventoryapp "github.com/erp/books/internal/application/inventory"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/spf13/cobra"
)

// stockStatuses maps the --status shorthands onto stock statuses
var stockStatuses = map[string]inventory.StockStatus{
	"out": inventory.StatusOutOfStock,
	"low": inventory.StatusLowStock,
	"in":  inventory.StatusInStock,
}

func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"items"},
		Short:   "Track stock levels and value",
	}
	cmd.AddCommand(inventoryListCmd())
	cmd.AddCommand(inventoryOverviewCmd())
	cmd.AddCommand(inventoryAdjustCmd())
	cmd.AddCommand(inventoryReorderCmd())
	cmd.AddCommand(inventoryDeleteCmd())
	cmd.AddCommand(inventoryExportCmd())
	cmd.AddCommand(inventoryImportCmd())
	return cmd
}

// loadCenter builds the inventory screen and loads it
func loadCenter(cmd *cobra.Command, a *App, lf *listFlags, category string) (*inventoryapp.Center, error) {
	center, err := a.inventoryCenter()
	if err != nil {
		return nil, err
	}
	if lf != nil {
		filter := lf.apply(center.Filter())
		if lf.status != "" {
			status, ok := stockStatuses[strings.ToLower(lf.status)]
			if !ok {
				return nil, fmt.Errorf("--status must be out, low or in")
			}
			filter.Status = string(status)
		}
		filter.Category = category
		center.SetFilter(filter)
	}
	if err := checkLoad(a.errOut, center.Load(cmd.Context())); err != nil {
		return nil, err
	}
	return center, nil
}

func inventoryListCmd() *cobra.Command {
	var (
		lf       listFlags
		category string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items with stock status and value",
		Long: `List items. --status takes out, low or in; --sort takes name, sku,
quantity, value or status.`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			center, err := loadCenter(cmd, a, &lf, category)
			if err != nil {
				return err
			}
			views := center.View()
			t := newTable(a.out, "SKU", "NAME", "CATEGORY", "ON HAND", "REORDER AT", "UNIT COST", "VALUE", "STATUS", "SUGGESTED")
			for _, v := range views {
				t.row(v.SKU, v.Name, v.Category, quantity(v.QuantityOnHand), quantity(v.ReorderPoint),
					money(v.UnitCost), money(v.TotalValue), string(v.Status), quantity(v.SuggestedReorder))
			}
			if err := t.flush(); err != nil {
				return err
			}
			pageFooter(a.out, center.Snapshot().Data.Page, len(views))
			return nil
		}),
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&category, "category", "", "only items in this category")
	return cmd
}

func inventoryOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Summarize stock value and levels",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			center, err := loadCenter(cmd, a, nil, "")
			if err != nil {
				return err
			}
			o, _ := center.Overview()
			fmt.Fprintf(a.out, "Items:         %d\n", o.TotalItems)
			fmt.Fprintf(a.out, "Quantity:      %s\n", quantity(o.TotalQuantity))
			fmt.Fprintf(a.out, "Value:         %s\n", money(o.TotalValue))
			fmt.Fprintf(a.out, "Low stock:     %d\n", o.LowStockCount)
			fmt.Fprintf(a.out, "Out of stock:  %d\n", o.OutOfStockCount)
			if len(o.Categories) > 0 {
				fmt.Fprintln(a.out)
				t := newTable(a.out, "CATEGORY", "ITEMS", "VALUE")
				for _, c := range o.Categories {
					t.row(c.Category, fmt.Sprint(c.Items), money(c.Value))
				}
				if err := t.flush(); err != nil {
					return err
				}
				if o.CategoriesPartial && !o.Partial {
					fmt.Fprintln(a.out, "\npartial: categories cover the loaded page only")
				}
			}
			if o.Partial {
				fmt.Fprintln(a.out, "\npartial: totals cover the loaded page only")
			}
			return nil
		}),
	}
}

func inventoryAdjustCmd() *cobra.Command {
	var (
		in     inventory.AdjustmentInput
		change string
		reason string
	)
	cmd := &cobra.Command{
		Use:   "adjust <item-id>",
		Short: "Record a stock adjustment",
		Example: `  books inventory adjust 9b1c... --by=-3 --reason damage --memo "water leak"
  books inventory adjust 9b1c... --by 12 --reason count`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			d, err := parseDecimal("by", change)
			if err != nil {
				return err
			}
			in.ItemID = args[0]
			in.QuantityChange = d
			in.Reason = inventory.AdjustmentReason(reason)
			center, err := a.inventoryCenter()
			if err != nil {
				return err
			}
			return center.Adjust(cmd.Context(), in)
		}),
	}
	cmd.Flags().StringVar(&change, "by", "", "signed quantity change (required)")
	cmd.Flags().StringVar(&reason, "reason", string(inventory.ReasonCount), "count, damage, loss, return, transfer or other")
	cmd.Flags().StringVar(&in.LocationID, "location", "", "location id")
	cmd.Flags().StringVar(&in.Memo, "memo", "", "memo")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func inventoryReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder",
		Short: "Suggest items to reorder",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			center, err := loadCenter(cmd, a, nil, "")
			if err != nil {
				return err
			}
			lines, partial, err := center.ReorderSuggestions(cmd.Context())
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Fprintln(a.out, "Nothing to reorder")
				return nil
			}
			t := newTable(a.out, "ITEM", "ON HAND", "REORDER AT", "ORDER")
			for _, l := range lines {
				t.row(l.ItemName, quantity(l.QuantityOnHand), quantity(l.ReorderPoint), quantity(l.SuggestedQuantity))
			}
			if err := t.flush(); err != nil {
				return err
			}
			if partial {
				fmt.Fprintln(a.out, "\npartial: worked out from the loaded items only")
			}
			return nil
		}),
	}
}

func inventoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			center, err := a.inventoryCenter()
			if err != nil {
				return err
			}
			return center.DeleteItem(cmd.Context(), args[0])
		}),
	}
}

func inventoryExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items as csv, json or yaml",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			center, err := a.inventoryCenter()
			if err != nil {
				return err
			}
			data, err := center.Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = a.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %d bytes to %s\n", len(data), output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: stdout)")
	return cmd
}

func inventoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create or update items from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			center, err := a.inventoryCenter()
			if err != nil {
				return err
			}
			res, err := center.Import(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d created, %d updated, %d skipped\n", res.Created, res.Updated, res.Skipped)
			for _, e := range res.Errors {
				fmt.Fprintf(a.errOut, "  %s\n", e)
			}
			return nil
		}),
	}
}
