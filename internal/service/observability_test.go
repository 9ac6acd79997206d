package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/stretchr/testify/assert"
)

type countingObserver struct {
	events []UseCaseEvent
}

func (c *countingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	c.events = append(c.events, e)
}

func TestSlogUseCaseObserver_LevelsByErrorKind(t *testing.T) {
	var buf bytes.Buffer
	obs := NewSlogUseCaseObserver(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()
	started := time.Now()

	observe(ctx, obs, "toggle-milestone", started, nil, map[string]any{"pathway_id": "ie-gp"})
	observe(ctx, obs, "toggle-milestone", started, validationError("name is required"), nil)
	observe(ctx, obs, "toggle-milestone", started, fmt.Errorf("%w: boom", ErrRemoteWrite), nil)

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=service_use_case use_case=toggle-milestone")
	assert.Contains(t, out, "pathway_id=ie-gp")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "success=false")
}

func TestUseCaseObserverOrNoop(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop(nil))
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop([]UseCaseObserver{nil}))
	assert.IsType(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))

	a, b := &countingObserver{}, &countingObserver{}
	assert.Same(t, a, useCaseObserverOrNoop([]UseCaseObserver{nil, a}))

	multi := useCaseObserverOrNoop([]UseCaseObserver{a, b})
	observe(context.Background(), multi, "load-dashboard", time.Now(), nil, nil)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.True(t, a.events[0].Success)
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(validationError("bad")))
	assert.True(t, IsUserError(ErrBusy))
	assert.True(t, IsUserError(fmt.Errorf("pathway x: %w", ErrNotFound)))
	assert.True(t, IsUserError(progress.ErrCrossCategory))
	assert.False(t, IsUserError(ErrRemoteWrite))
	assert.False(t, IsUserError(errors.New("disk full")))
}
