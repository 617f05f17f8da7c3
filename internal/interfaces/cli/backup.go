package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	backupapp "github.com/erp/books/internal/application/backup"
	"github.com/spf13/cobra"
)

// resources lists archive resources in restore order
var resources = []string{"vendors", "items", "bills", "purchase_orders", "templates"}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive and restore company records",
		Long: `Snapshot the records of a company into the configured archive store (a local
directory or an S3 bucket) and recreate them later, in the same company or
another one.`,
	}
	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupShowCmd())
	cmd.AddCommand(backupRestoreCmd())
	return cmd
}

func backupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Archive every record of the company",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			svc, err := a.backupService(cmd.Context())
			if err != nil {
				return err
			}
			info, err := svc.Create(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created %s (%d bytes)\n", info.Key, info.Size)
			return nil
		}),
	}
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives of the company, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			svc, err := a.backupService(cmd.Context())
			if err != nil {
				return err
			}
			infos, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(a.out, "No backups yet")
				return nil
			}
			t := newTable(a.out, "KEY", "SIZE", "CREATED")
			for _, info := range infos {
				t.row(info.Key, numbers.Sprintf("%d", info.Size), info.ModifiedAt.Local().Format("2006-01-02 15:04"))
			}
			return t.flush()
		}),
	}
}

func backupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show what an archive holds",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			svc, err := a.backupService(cmd.Context())
			if err != nil {
				return err
			}
			archive, err := svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Company: %s\nCreated: %s\n\n", archive.CompanyID, archive.CreatedAt.Local().Format("2006-01-02 15:04"))
			counts := archive.Counts()
			t := newTable(a.out, "RESOURCE", "RECORDS")
			for _, r := range resources {
				t.row(r, fmt.Sprint(counts[r]))
			}
			return t.flush()
		}),
	}
}

func backupRestoreCmd() *cobra.Command {
	var opts backupapp.RestoreOptions
	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Recreate the records of an archive in the company",
		Long: `Recreate the records of an archive. Existing records are left alone and
nothing is deleted. Purchase orders come back as drafts and templates are
never made the default. Records that fail are listed and the rest still
restore.`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *App, args []string) error {
			svc, err := a.backupService(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.Restore(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			printReport(a.out, report)
			if n := len(report.Failures); n > 0 {
				return fmt.Errorf("%d records could not be restored", n)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&opts.Settings, "settings", false, "also overwrite the company profile")
	return cmd
}

func printReport(w io.Writer, r backupapp.Report) {
	t := newTable(w, "RESOURCE", "CREATED", "SKIPPED")
	seen := make(map[string]bool, len(resources))
	for _, res := range resources {
		seen[res] = true
		t.row(res, fmt.Sprint(r.Created[res]), fmt.Sprint(r.Skipped[res]))
	}
	// Anything the service reports beyond the known resources, e.g. settings
	for _, res := range slices.Sorted(maps.Keys(r.Created)) {
		if !seen[res] {
			t.row(res, fmt.Sprint(r.Created[res]), fmt.Sprint(r.Skipped[res]))
		}
	}
	_ = t.flush()
	for _, f := range r.Failures {
		fmt.Fprintf(w, "failed: %s %s: %v\n", f.Resource, f.ID, f.Err)
	}
}
