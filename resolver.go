package rfscope

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jward/rfscope/internal/ctxlog"
	"github.com/jward/rfscope/internal/robot"
)

// ErrCancelled is returned when the context is done before resolution
// finishes. It wraps the context's error, so errors.Is(err,
// context.Canceled) also holds. A cancelled call has no answer; it is not
// the same as an empty one.
var ErrCancelled = errors.New("rfscope: resolution cancelled")

// Reach selects how far Collect looks beyond the current document.
type Reach int

const (
	// ReachAll walks local scope, the current document, imported resources,
	// variable files, the project configuration and the built-ins.
	ReachAll Reach = iota
	// ReachCurrentDocument stops after the current document's own
	// declarations.
	ReachCurrentDocument
)

func (r Reach) String() string {
	if r == ReachCurrentDocument {
		return "current-document"
	}
	return "all"
}

// Resolver finds the variables visible at a cursor position. It holds no
// per-call state and is safe for concurrent use.
type Resolver struct {
	builtins   []Builtin
	newMatcher func(prefix string) Matcher
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBuiltins replaces the built-in variable table.
func WithBuiltins(table []Builtin) Option {
	return func(r *Resolver) {
		r.builtins = table
	}
}

// WithMatcher sets how Complete turns the typed prefix into a Matcher.
// The default is RobotMatcher.
func WithMatcher(fn func(prefix string) Matcher) Option {
	return func(r *Resolver) {
		r.newMatcher = fn
	}
}

// NewResolver returns a Resolver using DefaultBuiltins and RobotMatcher
// unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		builtins:   DefaultBuiltins,
		newMatcher: RobotMatcher,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete returns the variables matching the partially typed variable
// under the cursor, in precedence order. The result is empty when the
// cursor is not inside a variable reference. The same name may appear more
// than once when several sources define it.
func (r *Resolver) Complete(ctx context.Context, cc *CompletionContext) ([]VariableFound, error) {
	if cc == nil || cc.Doc == nil {
		return nil, nil
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	tree, err := cc.Doc.Tree()
	if err != nil {
		ctxlog.FromContext(ctx).Warn("rfscope: cannot parse document", "path", cc.Doc.Path(), "error", err)
		return nil, nil
	}
	tok, _, ok := robot.VariableAt(tree, cc.Position.Line+1, cc.Position.Character)
	if !ok {
		return nil, nil
	}

	res := NewResults(r.newMatcher(strings.TrimSuffix(tok.Value, "}")))
	if err := r.Collect(ctx, cc, res, ReachAll); err != nil {
		return nil, err
	}
	return res.Variables, nil
}

// Collect reports every variable visible at cc.Position to c, filtered by
// c.Accepts, followed by the built-ins. Unresolvable imports are reported
// through c.OnUnresolvedImport. Failures of a single source are logged and
// that source is skipped; the only error returned wraps ErrCancelled.
func (r *Resolver) Collect(ctx context.Context, cc *CompletionContext, c Collector, reach Reach) error {
	if cc == nil || cc.Doc == nil {
		return nil
	}
	w := &walker{
		ctx:      ctx,
		log:      ctxlog.FromContext(ctx),
		c:        c,
		cc:       cc,
		builtins: r.builtins,
		visited:  map[Document]bool{cc.Doc: true},
		reported: make(map[robot.Node]bool),
	}
	return w.run(reach)
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
