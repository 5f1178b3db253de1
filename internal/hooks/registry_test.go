package hooks

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"contentgroups/api/internal/settings"
)

func TestRenderRunsHandlersInOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.OnRender("first", func(_ context.Context, e *RenderEvent) error {
		_, err := e.Head.Write([]byte("a"))
		return err
	})
	r.OnRender("second", func(_ context.Context, e *RenderEvent) error {
		_, err := e.Head.Write([]byte("b"))
		return err
	})

	var head bytes.Buffer
	r.Render(context.Background(), &RenderEvent{Head: &head})
	assert.Equal(t, "ab", head.String())
	assert.Equal(t, []string{"first", "second"}, r.Handlers(PointRender))
}

func TestFailingHandlersDoNotInterruptOthers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRegistry(zap.New(core))

	var calls []string
	r.OnSave("errors", func(context.Context, *SaveEvent) error {
		calls = append(calls, "errors")
		return errors.New("boom")
	})
	r.OnSave("panics", func(context.Context, *SaveEvent) error {
		calls = append(calls, "panics")
		panic("kaboom")
	})
	r.OnSave("works", func(_ context.Context, e *SaveEvent) error {
		calls = append(calls, "works:"+e.DocumentID)
		return nil
	})

	require.NotPanics(t, func() {
		r.Save(context.Background(), &SaveEvent{DocumentID: "doc-1"})
	})
	assert.Equal(t, []string{"errors", "panics", "works:doc-1"}, calls)
	assert.Equal(t, 1, logs.FilterMessage("hook failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("hook panicked").Len())
}

func TestSettingsRegisteredReceivesSections(t *testing.T) {
	r := NewRegistry(nil)
	var got []string
	r.OnSettingsRegistered("collect", func(_ context.Context, sections []settings.Section) error {
		for _, section := range sections {
			got = append(got, section.ID)
		}
		return nil
	})
	r.SettingsRegistered(context.Background(), settings.Sections())
	assert.Equal(t, []string{settings.SectionGoogleAnalytics, settings.SectionContentGroups}, got)
	assert.Equal(t, []string{"collect"}, r.Handlers(PointSettingsRegistered))
	assert.Empty(t, r.Handlers(PointRender))
}

func TestPoints(t *testing.T) {
	assert.Equal(t, []Point{PointSettingsRegistered, PointSave, PointRender}, Points())
}
