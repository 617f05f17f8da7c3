package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	purchasingapp "github.com/erp/books/internal/application/purchasing"
	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/spf13/cobra"
)

// scanPageSize is the page size used when looking an order up by reference
const scanPageSize = 100

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"po"},
		Short:   "Manage purchase orders",
	}
	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersCreateCmd())
	cmd.AddCommand(ordersTransitionCmd())
	cmd.AddCommand(ordersEmailCmd())
	cmd.AddCommand(ordersDeleteCmd())
	return cmd
}

func ordersListCmd() *cobra.Command {
	var (
		lf       listFlags
		vendorID string
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List purchase orders and the actions each allows",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			board, err := a.orderBoard()
			if err != nil {
				return err
			}
			filter := lf.apply(board.Filter())
			filter.VendorID = vendorID
			if from != "" {
				t, err := parseDate("from", from)
				if err != nil {
					return err
				}
				filter.DateFrom = &t
			}
			if to != "" {
				t, err := parseDate("to", to)
				if err != nil {
					return err
				}
				filter.DateTo = &t
			}
			board.SetFilter(filter)
			if err := checkLoad(a.errOut, board.Load(cmd.Context())); err != nil {
				return err
			}
			data := board.Snapshot().Data
			t := newTable(a.out, "NUMBER", "ID", "VENDOR", "DATE", "STATUS", "TOTAL", "ACTIONS")
			for _, o := range data.Orders {
				actions := make([]string, 0, len(o.Actions))
				for _, act := range o.Actions {
					actions = append(actions, string(act))
				}
				t.row(o.Number, o.ID, o.VendorLabel, date(o.OrderDate), string(o.Status), money(o.Subtotal), strings.Join(actions, ","))
			}
			if err := t.flush(); err != nil {
				return err
			}
			pageFooter(a.out, data.Page, len(data.Orders))
			fmt.Fprintf(a.out, "open total on this page: %s\n", money(data.OpenTotal))
			return nil
		}),
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&vendorID, "vendor", "", "only orders for this vendor id")
	cmd.Flags().StringVar(&from, "from", "", "order date on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "order date on or before (YYYY-MM-DD)")
	return cmd
}

func ordersCreateCmd() *cobra.Command {
	var (
		in             purchasing.OrderInput
		orderDate, exp string
		lines          []string
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Draft a purchase order",
		Example: `  books orders create --vendor 3f2a... --line "Widgets:100:1.25"`,
		Args:    cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			now := a.now()
			in.OrderDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			if orderDate != "" {
				t, err := parseDate("date", orderDate)
				if err != nil {
					return err
				}
				in.OrderDate = t
			}
			if exp != "" {
				t, err := parseDate("expected", exp)
				if err != nil {
					return err
				}
				in.ExpectedDate = &t
			}
			for _, raw := range lines {
				desc, qty, cost, err := parseLine(raw)
				if err != nil {
					return err
				}
				in.Lines = append(in.Lines, purchasing.LineItem{Description: desc, Quantity: qty, UnitCost: cost})
			}
			board, err := a.orderBoard()
			if err != nil {
				return err
			}
			return board.Create(cmd.Context(), in)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.VendorID, "vendor", "", "vendor id (required)")
	f.StringVar(&orderDate, "date", "", "order date, YYYY-MM-DD (default: today)")
	f.StringVar(&exp, "expected", "", "expected delivery date, YYYY-MM-DD")
	f.StringVar(&in.Memo, "memo", "", "memo")
	f.StringArrayVar(&lines, "line", nil, `line as "description:quantity:unit cost", repeatable`)
	return cmd
}

// findOrder pages through the board until the order with the given id or
// number is in the loaded snapshot, and returns its id
func findOrder(ctx context.Context, a *App, board *purchasingapp.Board, ref string) (string, error) {
	filter := board.Filter()
	filter.Page.PageSize = scanPageSize
	for page := 1; ; page++ {
		filter.Page.Page = page
		board.SetFilter(filter)
		res := board.Load(ctx)
		if res.Degraded {
			return "", fmt.Errorf("purchase order %s: %w: %w", ref, shared.ErrUnavailable, res.Err)
		}
		if err := checkLoad(a.errOut, res); err != nil {
			return "", err
		}
		data := board.Snapshot().Data
		for _, o := range data.Orders {
			if o.ID == ref || strings.EqualFold(o.Number, ref) {
				return o.ID, nil
			}
		}
		if !data.Page.HasNext() {
			return "", fmt.Errorf("purchase order %s: %w", ref, shared.ErrNotFound)
		}
	}
}

func ordersTransitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transition <order> <send|approve|receive|cancel>",
		Short: "Move a purchase order through its lifecycle",
		Long: `Apply an action to a purchase order, referenced by id or number. Drafts can
be sent, sent orders approved, approved orders received; anything not yet
received can be cancelled.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"send", "approve", "receive", "cancel"},
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			action := purchasing.Action(strings.ToLower(args[1]))
			if _, ok := action.Target(); !ok {
				return fmt.Errorf("unknown action %q: want send, approve, receive or cancel", args[1])
			}
			board, err := a.orderBoard()
			if err != nil {
				return err
			}
			id, err := findOrder(cmd.Context(), a, board, args[0])
			if err != nil {
				return err
			}
			return board.Transition(cmd.Context(), id, action)
		}),
	}
}

func ordersEmailCmd() *cobra.Command {
	var req purchasing.EmailRequest
	cmd := &cobra.Command{
		Use:   "email <order>",
		Short: "Email a purchase order to its vendor",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			board, err := a.orderBoard()
			if err != nil {
				return err
			}
			id, err := findOrder(cmd.Context(), a, board, args[0])
			if err != nil {
				return err
			}
			return board.Email(cmd.Context(), id, req)
		}),
	}
	cmd.Flags().StringSliceVar(&req.To, "to", nil, "recipient addresses (required)")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&req.Message, "message", "", "message body")
	return cmd
}

func ordersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <order>",
		Short: "Delete a draft or cancelled purchase order",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			board, err := a.orderBoard()
			if err != nil {
				return err
			}
			id, err := findOrder(cmd.Context(), a, board, args[0])
			if err != nil {
				return err
			}
			return board.Delete(cmd.Context(), id)
		}),
	}
}
