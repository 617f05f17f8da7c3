package cli

import (
	"fmt"
	"io"
	"strings"

	billingapp "github.com/erp/books/internal/application/billing"
	"github.com/erp/books/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// billFilterFlags extends the shared list flags with bill-only filters
type billFilterFlags struct {
	listFlags
	vendorID  string
	from, to  string
	minAmount string
	maxAmount string
	posted    string
}

func (f *billFilterFlags) register(cmd *cobra.Command) {
	f.listFlags.register(cmd)
	cmd.Flags().StringVar(&f.vendorID, "vendor", "", "only bills from this vendor id")
	cmd.Flags().StringVar(&f.from, "from", "", "bill date on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "bill date on or before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.minAmount, "min-amount", "", "minimum total")
	cmd.Flags().StringVar(&f.maxAmount, "max-amount", "", "maximum total")
	cmd.Flags().StringVar(&f.posted, "posted", "", "true or false to filter on posting state")
}

func (f *billFilterFlags) apply(filter billingapp.Filter) (billingapp.Filter, error) {
	filter.Filter = f.listFlags.apply(filter.Filter)
	filter.VendorID = f.vendorID
	if f.from != "" {
		t, err := parseDate("from", f.from)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &t
	}
	if f.to != "" {
		t, err := parseDate("to", f.to)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &t
	}
	if f.minAmount != "" {
		d, err := parseDecimal("min-amount", f.minAmount)
		if err != nil {
			return filter, err
		}
		filter.MinAmount = &d
	}
	if f.maxAmount != "" {
		d, err := parseDecimal("max-amount", f.maxAmount)
		if err != nil {
			return filter, err
		}
		filter.MaxAmount = &d
	}
	switch strings.ToLower(f.posted) {
	case "":
	case "true", "yes":
		posted := true
		filter.IsPosted = &posted
	case "false", "no":
		posted := false
		filter.IsPosted = &posted
	default:
		return filter, fmt.Errorf("--posted must be true or false")
	}
	return filter, nil
}

func billsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Review and enter vendor bills",
	}
	cmd.AddCommand(billsListCmd())
	cmd.AddCommand(billsAgingCmd())
	cmd.AddCommand(billsCreateCmd())
	return cmd
}

func billsListCmd() *cobra.Command {
	var ff billFilterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills with their aging",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			reg, err := a.billRegister()
			if err != nil {
				return err
			}
			filter, err := ff.apply(reg.Filter())
			if err != nil {
				return err
			}
			reg.SetFilter(filter)
			if err := checkLoad(a.errOut, reg.Load(cmd.Context())); err != nil {
				return err
			}
			data := reg.Snapshot().Data
			t := newTable(a.out, "NUMBER", "VENDOR", "BILL DATE", "DUE", "STATUS", "TOTAL", "BALANCE", "AGING")
			for _, b := range data.Bills {
				aging := string(b.Bucket)
				if b.Overdue {
					aging = fmt.Sprintf("%s (%dd)", b.Bucket, b.DaysOverdue)
				}
				t.row(b.Number, b.VendorName, date(b.BillDate), date(b.DueDate), string(b.Status), money(b.Total), money(b.BalanceDue), aging)
			}
			if err := t.flush(); err != nil {
				return err
			}
			pageFooter(a.out, data.Page, len(data.Bills))
			return nil
		}),
	}
	ff.register(cmd)
	return cmd
}

func billsAgingCmd() *cobra.Command {
	var (
		ff       billFilterFlags
		full     bool
		maxPages int
	)
	cmd := &cobra.Command{
		Use:   "aging",
		Short: "Show the payables aging summary",
		Long: `Show outstanding balances by days past due. By default only the first page
of bills is aged; --full walks every page.`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			reg, err := a.billRegister()
			if err != nil {
				return err
			}
			filter, err := ff.apply(reg.Filter())
			if err != nil {
				return err
			}
			reg.SetFilter(filter)

			var summary billing.AgingSummary
			if full {
				summary, err = reg.FullAging(cmd.Context(), maxPages)
				if err != nil {
					return err
				}
			} else {
				if err := checkLoad(a.errOut, reg.Load(cmd.Context())); err != nil {
					return err
				}
				summary = reg.Snapshot().Data.Aging
			}
			return printAging(a.out, summary)
		}),
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&full, "full", false, "age every bill, not just the first page")
	cmd.Flags().IntVar(&maxPages, "max-pages", 50, "page limit for --full (0 for no limit)")
	return cmd
}

func printAging(w io.Writer, s billing.AgingSummary) error {
	t := newTable(w, "BUCKET", "BILLS", "BALANCE")
	for _, b := range billing.Buckets {
		t.row(string(b), fmt.Sprint(s.Counts[b]), money(s.Totals[b]))
	}
	t.row("total", "", money(s.Total))
	t.row("overdue", "", money(s.Overdue))
	if err := t.flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nas of %s\n", date(s.AsOf))
	if s.Partial {
		fmt.Fprintln(w, "partial: only the loaded bills are included, use --full for all of them")
	}
	return nil
}

func billsCreateCmd() *cobra.Command {
	var (
		in            billing.BillInput
		billDate, due string
		lines         []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Enter a vendor bill",
		Example: `  books bills create --vendor 3f2a... --date 2026-03-01 --due 2026-03-31 \
    --line "Printer paper:10:4.50" --line "Toner:2:62"`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			var err error
			if in.BillDate, err = parseDate("date", billDate); err != nil {
				return err
			}
			if due == "" {
				in.DueDate = in.BillDate.AddDate(0, 0, 30)
			} else if in.DueDate, err = parseDate("due", due); err != nil {
				return err
			}
			for _, raw := range lines {
				desc, qty, cost, err := parseLine(raw)
				if err != nil {
					return err
				}
				in.Lines = append(in.Lines, billing.BillLine{Description: desc, Quantity: qty, UnitCost: cost})
			}
			reg, err := a.billRegister()
			if err != nil {
				return err
			}
			return reg.Create(cmd.Context(), in)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.VendorID, "vendor", "", "vendor id (required)")
	f.StringVar(&in.Number, "number", "", "vendor's bill number")
	f.StringVar(&billDate, "date", "", "bill date, YYYY-MM-DD (required)")
	f.StringVar(&due, "due", "", "due date, YYYY-MM-DD (default: 30 days after the bill date)")
	f.StringVar(&in.Memo, "memo", "", "memo")
	f.StringArrayVar(&lines, "line", nil, `line as "description:quantity:unit cost", repeatable`)
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// parseLine splits "description:quantity:unit cost". The description may
// itself contain colons; the last two fields are the numbers.
func parseLine(raw string) (string, decimal.Decimal, decimal.Decimal, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("line %q: want description:quantity:unit cost", raw)
	}
	n := len(parts)
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[n-2]))
	if err != nil {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("line %q: bad quantity: %w", raw, err)
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("line %q: bad unit cost: %w", raw, err)
	}
	return strings.TrimSpace(strings.Join(parts[:n-2], ":")), qty, cost, nil
}
