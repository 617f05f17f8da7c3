package viewstate

import "github.com/erp/books/internal/infrastructure/validation"

// Env carries what every screen needs besides its backend service
type Env struct {
	CompanyID string
	Confirmer Confirmer
	Notifier  Notifier
	Validator *validation.Validator
	Options
}

// WithDefaults fills unset fields
func (e Env) WithDefaults() Env {
	e.Options = e.Options.withDefaults()
	if e.Validator == nil {
		e.Validator = validation.New()
	}
	if e.Notifier == nil {
		e.Notifier = LogNotifier{Logger: e.Logger}
	}
	return e
}

// NewDispatcher creates a dispatcher from the environment
func (e Env) NewDispatcher(reload ReloadFunc) *Dispatcher {
	return NewDispatcher(e.Confirmer, e.Notifier, reload, e.Options)
}
