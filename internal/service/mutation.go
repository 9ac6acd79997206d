package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pathways/internal/lock"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/state"
)

// DefaultWriteTimeout bounds a single store write issued by a mutation.
const DefaultWriteTimeout = 10 * time.Second

// MutationOptions tunes the optimistic write pipeline.
type MutationOptions struct {
	WriteTimeout time.Duration
	LockTTL      time.Duration
}

func (o MutationOptions) withDefaults() MutationOptions {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.LockTTL <= 0 {
		o.LockTTL = lock.DefaultTTL
	}
	return o
}

// pendingMutation is one optimistic change to a user's state.
//
// apply edits the cached snapshot; returning progress.ErrNoop ends the
// mutation successfully without a write. commit persists the applied
// snapshot and runs under the write timeout. If commit fails the snapshot is
// restored, whatever kind of change it was.
type pendingMutation struct {
	name    string
	userID  string
	lockKey string
	fields  map[string]any

	validate func() error
	apply    func(snap *state.Snapshot) error
	commit   func(ctx context.Context, snap *state.Snapshot) error
}

type mutationRunner struct {
	store    *state.Store
	locker   lock.Locker
	opts     MutationOptions
	observer UseCaseObserver
}

func (r *mutationRunner) run(ctx context.Context, m pendingMutation) (err error) {
	startedAt := time.Now()
	fields := m.fields
	if fields == nil {
		fields = map[string]any{}
	}
	fields["user_id"] = m.userID
	defer func() {
		observe(ctx, r.observer, m.name, startedAt, err, fields)
	}()

	if m.userID == "" {
		return validationError("user id is required")
	}
	if m.validate != nil {
		if err := m.validate(); err != nil {
			return err
		}
	}

	if m.lockKey != "" {
		release, err := r.locker.Acquire(ctx, m.userID+":"+m.lockKey, r.opts.LockTTL)
		if errors.Is(err, lock.ErrHeld) {
			return fmt.Errorf("%w: %s", ErrBusy, m.lockKey)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
		defer release()
	}

	unlock, err := r.store.Lock(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}
	defer unlock()

	var applied *state.Snapshot
	undo, err := r.store.Apply(ctx, m.userID, func(snap *state.Snapshot) error {
		if err := m.apply(snap); err != nil {
			return err
		}
		applied = snap
		return nil
	})
	if errors.Is(err, progress.ErrNoop) {
		fields["noop"] = true
		return nil
	}
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()
	if err := m.commit(wctx, applied); err != nil {
		undo()
		fields["rolled_back"] = true
		return fmt.Errorf("%w: %s: %w", ErrRemoteWrite, m.name, err)
	}
	return nil
}
