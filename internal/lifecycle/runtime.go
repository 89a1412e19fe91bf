package lifecycle

import (
	"context"
	"errors"
	"fmt"
)

// Component is anything with a managed lifetime: it starts once and
// releases its resources on Stop.
type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runtime starts components in registration order and stops them in
// reverse, dependants go down before what they depend on.
type Runtime struct {
	components []Component
}

func NewRuntime(components ...Component) *Runtime {
	return &Runtime{components: components}
}

func (r *Runtime) Register(component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, component)
}

// Start brings every component up. A failure rolls back the ones
// already started before returning.
func (r *Runtime) Start(ctx context.Context) error {
	for i, component := range r.components {
		if component == nil {
			continue
		}
		if err := component.Start(ctx); err != nil {
			_ = r.stopReverse(ctx, i)
			return fmt.Errorf("start component %d: %w", i, err)
		}
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	return r.stopReverse(ctx, len(r.components))
}

// stopReverse stops components[:n] last-first, collecting every error.
func (r *Runtime) stopReverse(ctx context.Context, n int) error {
	var errs error
	for i := n - 1; i >= 0; i-- {
		component := r.components[i]
		if component == nil {
			continue
		}
		if err := component.Stop(ctx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("stop component %d: %w", i, err))
		}
	}
	return errs
}
