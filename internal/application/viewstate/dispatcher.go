package viewstate

import (
	"context"
	"fmt"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Mutation is one user-triggered state change
type Mutation struct {
	Name string
	// Destructive mutations run only after the Confirmer agrees
	Destructive bool
	// Prompt is shown when asking for confirmation
	Prompt string
	// Validate runs before anything else; a non-nil error stops the mutation
	Validate func() error
	Execute  func(ctx context.Context) error
	// Success is the acknowledgment shown when the mutation succeeds
	Success string
}

// Confirmer asks the user to approve a destructive mutation
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt, for non-interactive use
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// NeverConfirm rejects every prompt
var NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })

// Level is the severity of a notice
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a user-facing acknowledgment of a mutation
type Notice struct {
	Level    Level
	Mutation string
	Message  string
	Err      error
}

// Notifier shows notices to the user
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to a logger
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify implements Notifier
func (n LogNotifier) Notify(_ context.Context, notice Notice) {
	fields := []zap.Field{zap.String("mutation", notice.Mutation)}
	switch notice.Level {
	case LevelError:
		n.Logger.Error(notice.Message, append(fields, zap.Error(notice.Err))...)
	case LevelWarning:
		n.Logger.Warn(notice.Message, append(fields, zap.Error(notice.Err))...)
	default:
		n.Logger.Info(notice.Message, fields...)
	}
}

// ReloadFunc refreshes the screen after a successful mutation
type ReloadFunc func(ctx context.Context) Result

// Dispatcher runs mutations for one screen. A mutation never edits the
// screen's store directly: success triggers a reload, failure leaves the
// store exactly as it was.
type Dispatcher struct {
	confirmer Confirmer
	notifier  Notifier
	reload    ReloadFunc
	opts      Options
}

// NewDispatcher creates a dispatcher. A nil confirmer rejects every
// destructive mutation.
func NewDispatcher(confirmer Confirmer, notifier Notifier, reload ReloadFunc, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	if confirmer == nil {
		confirmer = NeverConfirm
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: opts.Logger}
	}
	return &Dispatcher{
		confirmer: confirmer,
		notifier:  notifier,
		reload:    reload,
		opts:      opts,
	}
}

// Dispatch validates, confirms, executes and reloads
func (d *Dispatcher) Dispatch(ctx context.Context, m Mutation) error {
	if m.Validate != nil {
		if err := m.Validate(); err != nil {
			d.opts.Metrics.Mutation(m.Name, telemetry.OutcomeRejected)
			d.notifier.Notify(ctx, Notice{Level: LevelError, Mutation: m.Name, Message: err.Error(), Err: err})
			return err
		}
	}

	if m.Destructive {
		prompt := m.Prompt
		if prompt == "" {
			prompt = fmt.Sprintf("Really %s?", m.Name)
		}
		ok, err := d.confirmer.Confirm(ctx, prompt)
		if err != nil {
			return fmt.Errorf("confirming %s: %w", m.Name, err)
		}
		if !ok {
			d.opts.Metrics.Mutation(m.Name, telemetry.OutcomeRejected)
			return shared.ErrNotConfirmed
		}
	}

	if err := m.Execute(ctx); err != nil {
		d.opts.Metrics.Mutation(m.Name, telemetry.OutcomeFailed)
		d.notifier.Notify(ctx, Notice{Level: LevelError, Mutation: m.Name, Message: m.Name + " failed", Err: err})
		return err
	}

	d.opts.Metrics.Mutation(m.Name, telemetry.OutcomeOK)
	msg := m.Success
	if msg == "" {
		msg = m.Name + " succeeded"
	}
	d.notifier.Notify(ctx, Notice{Level: LevelSuccess, Mutation: m.Name, Message: msg})

	if d.reload != nil {
		if res := d.reload(ctx); res.Err != nil && !res.Stale {
			d.notifier.Notify(ctx, Notice{Level: LevelWarning, Mutation: m.Name, Message: "refresh after " + m.Name + " failed", Err: res.Err})
		}
	}
	return nil
}
