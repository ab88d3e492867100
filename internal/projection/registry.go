// Package projection applies decoded chain events to the derived tables.
// Each event kind maps to exactly one handler; handlers run inside the
// synchronizer's batch transaction and assume per-source causal ordering.
package projection

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// Handler mutates projected state in response to one event kind.
type Handler interface {
	// Kind returns the canonical dotted event kind this handler applies,
	// e.g. "profile.created".
	Kind() string

	// Apply runs the mutation inside the batch transaction. A returned
	// error is a ProjectionError: the synchronizer logs it and still marks
	// the event applied, so a permanently unappliable event is never
	// reprocessed.
	Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error
}

// Registry maps event kinds to handlers. It is populated at startup and
// read-only afterwards.
type Registry struct {
	handlers map[string]Handler
	log      *logger.Logger
}

// NewRegistry creates an empty handler registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		log:      log.WithComponent(common.ComponentProjection),
	}
}

// NewDefaultRegistry creates a registry with every known AUREUS handler
// installed.
func NewDefaultRegistry(log *logger.Logger) *Registry {
	r := NewRegistry(log)

	projLog := r.log

	for _, h := range []Handler{
		&profileCreatedHandler{log: projLog},
		&profileUpdatedHandler{log: projLog},
		&skillAddedHandler{log: projLog},
		&skillRemovedHandler{log: projLog},
		&endorsementCreatedHandler{log: projLog},
		&endorsementRevokedHandler{log: projLog},
		&verifierRegisteredHandler{log: projLog},
		&verifierRemovedHandler{log: projLog},
		&poolCreatedHandler{log: projLog},
		&claimSubmittedHandler{log: projLog},
		&claimApprovedHandler{log: projLog},
		&claimRejectedHandler{log: projLog},
		&poolClosedHandler{log: projLog},
	} {
		r.MustRegister(h)
	}

	return r
}

// Register binds a handler to its kind. One handler per kind: a duplicate
// registration is a programming error and is rejected.
func (r *Registry) Register(h Handler) error {
	kind := h.Kind()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("handler for kind %q already registered", kind)
	}

	r.handlers[kind] = h

	return nil
}

// MustRegister is Register for static wiring at startup.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for a kind. Events with no handler are stored
// by the synchronizer but never applied.
func (r *Registry) Lookup(kind string) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns all registered kinds in a stable order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	return kinds
}

// rowExists reports whether the query matches at least one row. Used for
// best-effort parent lookups before dependent mutations.
func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to run existence lookup: %w", err)
	}

	return true, nil
}
