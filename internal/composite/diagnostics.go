package composite

import (
	"log/slog"

	"github.com/solatis/courier/internal/types"
)

// DiagnosticKind classifies a degraded translation.
type DiagnosticKind int

const (
	// MissingMapping: an identifier had no counterpart; the field was left as is.
	MissingMapping DiagnosticKind = iota + 1
	// MalformedPayload: a schema or value did not parse; it was passed through.
	MalformedPayload
)

func (k DiagnosticKind) String() string {
	switch k {
	case MissingMapping:
		return "missing_mapping"
	case MalformedPayload:
		return "malformed_payload"
	default:
		return "unknown"
	}
}

// Diagnostic describes a translation that completed only partially.
// Diagnostics never change control flow.
type Diagnostic struct {
	Kind      DiagnosticKind
	Direction types.Direction
	Subject   string // data type name or item display name
	Alias     string // property alias, when the problem is per property
	Err       error
}

// Option configures a Rewriter, Resolver, or Provider.
type Option func(*options)

type options struct {
	diagnose    func(Diagnostic)
	editorAlias string
	preValue    string
}

func newOptions(opts []Option) options {
	o := options{
		editorAlias: types.CompositeEditorAlias,
		preValue:    types.CompositePreValueAlias,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) report(d Diagnostic) {
	if o.diagnose != nil {
		o.diagnose(d)
	}
}

// WithDiagnostics registers a callback for degraded translations.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(o *options) {
		o.diagnose = fn
	}
}

// WithEditorAlias overrides the composite editor alias.
func WithEditorAlias(alias string) Option {
	return func(o *options) {
		o.editorAlias = alias
	}
}

// WithPreValueAlias overrides the alias marking prevalue 0 as a schema.
func WithPreValueAlias(alias string) Option {
	return func(o *options) {
		o.preValue = alias
	}
}

// LogDiagnostics returns a diagnostics callback writing structured warnings.
func LogDiagnostics(logger *slog.Logger) func(Diagnostic) {
	return func(d Diagnostic) {
		attrs := []any{
			slog.String("kind", d.Kind.String()),
			slog.String("direction", d.Direction.String()),
			slog.String("subject", d.Subject),
		}
		if d.Alias != "" {
			attrs = append(attrs, slog.String("alias", d.Alias))
		}
		if d.Err != nil {
			attrs = append(attrs, slog.String("error", d.Err.Error()))
		}
		logger.Warn("composite translation degraded", attrs...)
	}
}
