package cli

import (
	"fmt"
	"os"

	"github.com/erp/books/internal/domain/document"
	"github.com/spf13/cobra"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Design invoice, estimate and purchase order templates",
	}
	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesExportCmd())
	cmd.AddCommand(templatesImportCmd())
	cmd.AddCommand(templatesPreviewCmd())
	cmd.AddCommand(templatesDefaultCmd())
	cmd.AddCommand(templatesLogoCmd())
	cmd.AddCommand(templatesDeleteCmd())
	return cmd
}

func templatesListCmd() *cobra.Command {
	var docType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			designer, cleanup, err := a.templateDesigner(false)
			if err != nil {
				return err
			}
			defer cleanup()
			if docType != "" {
				t := document.Type(docType)
				if !t.IsValid() {
					return fmt.Errorf("--type must be invoice, estimate, credit_memo or purchase_order")
				}
				designer.SetType(t)
			}
			if err := checkLoad(a.errOut, designer.Load(cmd.Context())); err != nil {
				return err
			}
			data := designer.Snapshot().Data
			tw := newTable(a.out, "ID", "NAME", "TYPE", "DEFAULT", "PAPER", "UPDATED")
			for _, t := range data.Templates {
				tw.row(t.ID, t.Name, string(t.Type), yesNo(t.IsDefault), string(t.Settings.PaperSize), date(t.UpdatedAt))
			}
			return tw.flush()
		}),
	}
	cmd.Flags().StringVar(&docType, "type", "", "only templates for this document type")
	return cmd
}

func templatesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <template-id> <file>",
		Short: "Save a template to a JSON or YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			designer, cleanup, err := a.templateDesigner(false)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := designer.Export(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported to %s\n", args[1])
			return nil
		}),
	}
}

func templatesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create a template from an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			designer, cleanup, err := a.templateDesigner(false)
			if err != nil {
				return err
			}
			defer cleanup()
			t, err := designer.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported as %q (%s)\n", t.Name, t.ID)
			return nil
		}),
	}
}

func templatesPreviewCmd() *cobra.Command {
	var output string
	var pdf bool
	cmd := &cobra.Command{
		Use:   "preview <template-id>",
		Short: "Render a template with a sample document",
		Long: `Render a template filled with a sample document. HTML goes to stdout or
--output; --pdf prints through a headless Chrome and needs --output.`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			if pdf && output == "" {
				return fmt.Errorf("--pdf needs --output")
			}
			designer, cleanup, err := a.templateDesigner(pdf)
			if err != nil {
				return err
			}
			defer cleanup()

			var data []byte
			if pdf {
				data, err = designer.RenderPDF(cmd.Context(), args[0])
			} else {
				var html string
				html, _, err = designer.Preview(cmd.Context(), args[0])
				data = []byte(html)
			}
			if err != nil {
				return err
			}
			if output == "" {
				_, err = a.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote preview to %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "render a PDF instead of HTML")
	return cmd
}

func templatesDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <template-id>",
		Short: "Make a template the default for its document type",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			designer, cleanup, err := a.templateDesigner(false)
			if err != nil {
				return err
			}
			defer cleanup()
			return designer.SetDefault(cmd.Context(), args[0])
		}),
	}
}

func templatesLogoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logo <template-id> <image>",
		Short: "Upload a logo image for a template",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			designer, cleanup, err := a.templateDesigner(false)
			if err != nil {
				return err
			}
			defer cleanup()
			return designer.UploadLogo(cmd.Context(), args[0], args[1])
		}),
	}
}

func templatesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			designer, cleanup, err := a.templateDesigner(false)
			if err != nil {
				return err
			}
			defer cleanup()
			return designer.Delete(cmd.Context(), args[0])
		}),
	}
}
