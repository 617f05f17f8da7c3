package cli

import (
	"fmt"
	"io"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared"
	"github.com/spf13/cobra"
)

// listFlags are the filter flags every list command shares
type listFlags struct {
	search   string
	status   string
	sortBy   string
	desc     bool
	page     int
	pageSize int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "free-text search")
	cmd.Flags().StringVar(&f.status, "status", "", "only show records with this status")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "sort field")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&f.page, "page", shared.DefaultPage, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", shared.DefaultPageSize, "records per page")
}

// apply copies the flags onto a screen filter
func (f *listFlags) apply(filter shared.Filter) shared.Filter {
	filter.Search = f.search
	filter.Status = f.status
	if f.sortBy != "" {
		filter.SortBy = f.sortBy
	}
	if f.desc {
		filter.SortDir = shared.SortDesc
	}
	filter.Page.Page = f.page
	filter.Page.PageSize = f.pageSize
	return filter
}

// checkLoad turns a load result into an error, warning when fallback data is
// being shown instead of the backend's
func checkLoad(w io.Writer, res viewstate.Result) error {
	if res.Err != nil && !res.Applied {
		return res.Err
	}
	if res.Degraded {
		fmt.Fprintf(w, "warning: backend unavailable (%v), showing fallback data\n", res.Err)
	}
	return nil
}

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage vendors",
	}
	cmd.AddCommand(vendorsListCmd())
	cmd.AddCommand(vendorsCreateCmd())
	cmd.AddCommand(vendorsDeleteCmd())
	return cmd
}

func vendorsListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vendors",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			dir, err := a.vendorDirectory()
			if err != nil {
				return err
			}
			dir.SetFilter(lf.apply(dir.Filter()))
			if err := checkLoad(a.errOut, dir.Load(cmd.Context())); err != nil {
				return err
			}
			data := dir.Snapshot().Data
			t := newTable(a.out, "ID", "NAME", "EMAIL", "PHONE", "STATUS", "BALANCE")
			for _, v := range data.Vendors {
				t.row(v.ID, v.DisplayName(), v.Email, v.Phone, string(v.Status), money(v.Balance))
			}
			if err := t.flush(); err != nil {
				return err
			}
			pageFooter(a.out, data.Page, len(data.Vendors))
			return nil
		}),
	}
	lf.register(cmd)
	return cmd
}

func vendorsCreateCmd() *cobra.Command {
	var in partner.VendorInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a vendor",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			dir, err := a.vendorDirectory()
			if err != nil {
				return err
			}
			return dir.Create(cmd.Context(), in)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "contact name (required)")
	f.StringVar(&in.CompanyName, "company-name", "", "company name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.TaxID, "tax-id", "", "tax identifier")
	f.StringVar(&in.Terms, "terms", "", "payment terms, e.g. Net 30")
	f.StringVar(&in.Address.Line1, "address", "", "street address")
	f.StringVar(&in.Address.City, "city", "", "city")
	f.StringVar(&in.Address.State, "state", "", "state or region")
	f.StringVar(&in.Address.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&in.Address.Country, "country", "", "country")
	return cmd
}

func vendorsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <vendor-id>",
		Short: "Delete a vendor",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			dir, err := a.vendorDirectory()
			if err != nil {
				return err
			}
			return dir.Delete(cmd.Context(), args[0])
		}),
	}
}
