// Package hooks is the ordered set of named extension points the host calls
// into: page render, document save and settings registration.
package hooks

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"go.uber.org/zap"

	"contentgroups/api/internal/settings"
	"contentgroups/api/internal/store"
)

type Point string

const (
	PointRender             Point = "render"
	PointSave               Point = "save"
	PointSettingsRegistered Point = "settings-registered"
)

// Points lists the extension points in the order the host reaches them.
func Points() []Point {
	return []Point{PointSettingsRegistered, PointSave, PointRender}
}

// RenderEvent is fired once per document view. Handlers write into Head.
type RenderEvent struct {
	Document      store.Document
	Singular      bool
	Authenticated bool
	Settings      settings.Settings
	Head          io.Writer
}

// SaveEvent is fired once per document save with the submitted form.
// Handlers that persist content groups set Annotated.
type SaveEvent struct {
	DocumentID string
	ActorID    string
	Form       url.Values
	Autosave   bool
	Annotated  bool
}

type (
	RenderFunc             func(context.Context, *RenderEvent) error
	SaveFunc               func(context.Context, *SaveEvent) error
	SettingsRegisteredFunc func(context.Context, []settings.Section) error
)

type named[F any] struct {
	name string
	fn   F
}

// Registry runs handlers in registration order. A handler that fails or
// panics is logged and skipped; the host call always completes.
type Registry struct {
	logger   *zap.Logger
	render   []named[RenderFunc]
	save     []named[SaveFunc]
	settings []named[SettingsRegisteredFunc]
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

func (r *Registry) OnRender(name string, fn RenderFunc) {
	r.render = append(r.render, named[RenderFunc]{name: name, fn: fn})
}

func (r *Registry) OnSave(name string, fn SaveFunc) {
	r.save = append(r.save, named[SaveFunc]{name: name, fn: fn})
}

func (r *Registry) OnSettingsRegistered(name string, fn SettingsRegisteredFunc) {
	r.settings = append(r.settings, named[SettingsRegisteredFunc]{name: name, fn: fn})
}

// Handlers returns the handler names registered on point, in run order.
func (r *Registry) Handlers(point Point) []string {
	var names []string
	switch point {
	case PointRender:
		for _, h := range r.render {
			names = append(names, h.name)
		}
	case PointSave:
		for _, h := range r.save {
			names = append(names, h.name)
		}
	case PointSettingsRegistered:
		for _, h := range r.settings {
			names = append(names, h.name)
		}
	}
	return names
}

func (r *Registry) Render(ctx context.Context, event *RenderEvent) {
	for _, h := range r.render {
		r.run(PointRender, h.name, func() error { return h.fn(ctx, event) })
	}
}

func (r *Registry) Save(ctx context.Context, event *SaveEvent) {
	for _, h := range r.save {
		r.run(PointSave, h.name, func() error { return h.fn(ctx, event) })
	}
}

func (r *Registry) SettingsRegistered(ctx context.Context, sections []settings.Section) {
	for _, h := range r.settings {
		r.run(PointSettingsRegistered, h.name, func() error { return h.fn(ctx, sections) })
	}
}

func (r *Registry) run(point Point, name string, call func() error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("hook panicked",
				zap.String("point", string(point)),
				zap.String("handler", name),
				zap.Error(fmt.Errorf("%v", recovered)))
		}
	}()
	if err := call(); err != nil {
		r.logger.Warn("hook failed",
			zap.String("point", string(point)),
			zap.String("handler", name),
			zap.Error(err))
	}
}
