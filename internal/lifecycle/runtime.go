package lifecycle

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type named struct {
	name      string
	component Component
}

// Runtime starts components in registration order and stops them in reverse.
type Runtime struct {
	components []named
	started    []named
}

func NewRuntime() *Runtime {
	return &Runtime{}
}

func (r *Runtime) Register(name string, component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, named{name: name, component: component})
}

func (r *Runtime) Start(ctx context.Context) error {
	started := make([]named, 0, len(r.components))
	for _, c := range r.components {
		if err := c.component.Start(ctx); err != nil {
			_ = stopComponents(ctx, started)
			return fmt.Errorf("start %s: %w", c.name, err)
		}
		log.WithField("component", c.name).Debug("component started")
		started = append(started, c)
	}
	r.started = started
	return nil
}

// Stop stops the components started by the last successful Start.
func (r *Runtime) Stop(ctx context.Context) error {
	started := r.started
	r.started = nil
	return stopComponents(ctx, started)
}

func stopComponents(ctx context.Context, components []named) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.component.Stop(ctx); err != nil {
			log.WithField("component", c.name).WithError(err).Warn("component stop failed")
			stopErr = errors.Join(stopErr, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		log.WithField("component", c.name).Debug("component stopped")
	}
	return stopErr
}
