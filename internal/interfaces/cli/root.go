package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/erp/books/internal/infrastructure/logger"
	"github.com/erp/books/internal/infrastructure/session"
	"github.com/erp/books/internal/infrastructure/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Options overrides the process environment, mostly for tests
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// SessionStore replaces the configured store; it is not closed
	SessionStore session.Store
	// Archives replaces the configured backup store
	Archives   storage.ArchiveStore
	HTTPClient *http.Client
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// appKey stores the App in the command context
type appKey struct{}

// appFrom returns the App built for the running command
func appFrom(cmd *cobra.Command) *App {
	a, _ := cmd.Context().Value(appKey{}).(*App)
	return a
}

// NewRootCommand builds the books command tree
func NewRootCommand(opts Options) *cobra.Command {
	opts = opts.withDefaults()
	var flags globalFlags

	root := &cobra.Command{
		Use:   "books",
		Short: "Work with a books accounting backend from the terminal",
		Long: `books signs in to an accounting backend and manages its vendors, bills,
inventory, purchase orders, document templates and backups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, opts)
			if err != nil {
				return err
			}
			ctx := logger.WithContext(context.WithValue(cmd.Context(), appKey{}, a), a.Logger)
			if a.companyID != "" {
				ctx = logger.WithCompanyID(ctx, a.companyID)
			}
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a := appFrom(cmd); a != nil {
				return a.Close(context.WithoutCancel(cmd.Context()))
			}
			return nil
		},
	}
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/books/config.toml)")
	root.PersistentFlags().StringVar(&flags.companyID, "company", "", "company to work in (overrides app.company_id)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, "answer yes to every confirmation prompt")

	root.AddCommand(loginCmd())
	root.AddCommand(logoutCmd())
	root.AddCommand(vendorsCmd())
	root.AddCommand(billsCmd())
	root.AddCommand(inventoryCmd())
	root.AddCommand(ordersCmd())
	root.AddCommand(templatesCmd())
	root.AddCommand(backupCmd())

	return root
}

// Execute runs the command tree with args and returns the user-facing error,
// if any. The error has already been rewritten by userError.
func Execute(ctx context.Context, args []string, opts Options) error {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	return userError(root.ExecuteContext(ctx))
}

// run adapts a command body that needs the App
func run(fn func(cmd *cobra.Command, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, appFrom(cmd), args)
		if err != nil {
			logger.L(cmd.Context()).Debug("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		}
		return err
	}
}
