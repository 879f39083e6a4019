// Package hook implements the extension-point engine that lets
// independently-loaded modules extend or replace core behavior without
// touching core code.
//
// Core operations name their extension points with stable target
// identifiers ("player.join", "block.update", ...). Modules register
// handlers against a target with one of three timings: Before handlers run
// ahead of the operation's default body, a single Replace handler may run
// instead of it, and After handlers run on its result and may transform it.
// Within one invocation everything is sequential; concurrency exists only
// across independent invocations.
//
// All registration happens during the loader phase, before the engine
// seals, so invocation during serving reads the tables without locks.
package hook

import (
	"context"
	"fmt"
	"log/slog"
)

// Timing places a handler relative to the extension point's default body.
type Timing uint8

const (
	Before  Timing = iota // runs ahead of the body, may abort the call
	After                 // runs on the result, may transform it
	Replace               // runs instead of the body; at most one per target
)

// String returns the string representation of the timing.
func (t Timing) String() string {
	switch t {
	case Before:
		return "Before"
	case After:
		return "After"
	case Replace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// BodyFunc is the signature of an extension point's default body and of a
// Replace handler.
type BodyFunc func(ctx context.Context, input any) (any, error)

// BeforeFunc receives the call's input; a non-nil error aborts the
// remaining Before handlers and the rest of the invocation.
type BeforeFunc func(ctx context.Context, input any) error

// AfterFunc receives the input and the result so far and returns the result
// to hand to the next After handler.
type AfterFunc func(ctx context.Context, input, result any) (any, error)

type beforeBinding struct {
	owner string
	fn    BeforeFunc
}

type afterBinding struct {
	owner string
	fn    AfterFunc
}

type point struct {
	before       []beforeBinding
	after        []afterBinding
	replace      BodyFunc
	replaceOwner string
}

// Engine owns every hook binding in the process. Bindings belong to the
// engine, not to the module that registered them; a module may be discarded
// after registration without invalidating its hooks.
type Engine struct {
	points map[string]*point
	logger *slog.Logger
	sealed bool
}

// NewEngine creates an empty hook engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		points: make(map[string]*point),
		logger: logger,
	}
}

func (e *Engine) point(target string) *point {
	p, ok := e.points[target]
	if !ok {
		p = &point{}
		e.points[target] = p
	}
	return p
}

// RegisterBefore appends a Before handler for the target, in call order.
func (e *Engine) RegisterBefore(target, owner string, fn BeforeFunc) error {
	if e.sealed {
		return &ConflictError{Target: target, Owner: owner, Reason: "hook engine sealed"}
	}
	p := e.point(target)
	p.before = append(p.before, beforeBinding{owner: owner, fn: fn})
	e.logger.Debug("hook registered", "target", target, "timing", Before.String(), "module", owner)
	return nil
}

// RegisterAfter appends an After handler for the target, in call order.
func (e *Engine) RegisterAfter(target, owner string, fn AfterFunc) error {
	if e.sealed {
		return &ConflictError{Target: target, Owner: owner, Reason: "hook engine sealed"}
	}
	p := e.point(target)
	p.after = append(p.after, afterBinding{owner: owner, fn: fn})
	e.logger.Debug("hook registered", "target", target, "timing", After.String(), "module", owner)
	return nil
}

// RegisterReplace installs the target's Replace handler. A second Replace
// on the same target is a startup-time conflict.
func (e *Engine) RegisterReplace(target, owner string, fn BodyFunc) error {
	if e.sealed {
		return &ConflictError{Target: target, Owner: owner, Reason: "hook engine sealed"}
	}
	p := e.point(target)
	if p.replace != nil {
		return &ConflictError{
			Target:   target,
			Owner:    owner,
			OldOwner: p.replaceOwner,
			Reason:   "replace hook already registered",
		}
	}
	p.replace = fn
	p.replaceOwner = owner
	e.logger.Debug("hook registered", "target", target, "timing", Replace.String(), "module", owner)
	return nil
}

// Seal freezes the engine; later registrations fail.
func (e *Engine) Seal() {
	if e.sealed {
		return
	}
	e.sealed = true
	e.logger.Debug("hook engine sealed", "targets", len(e.points))
}

// Sealed reports whether the engine has been sealed.
func (e *Engine) Sealed() bool {
	return e.sealed
}

// Targets returns the number of extension points with at least one binding.
func (e *Engine) Targets() int {
	return len(e.points)
}

// Invoke runs the extension point named target around the default body:
//
//  1. Every Before handler, in registration order. A failing handler
//     aborts the invocation with its error.
//  2. The Replace handler if one exists, otherwise body.
//  3. Every After handler, in registration order, each receiving the input
//     and the result so far and returning the (possibly transformed) result.
//
// A cancelled ctx aborts the remaining chain between steps with ctx.Err().
// The final result is returned to the caller.
func (e *Engine) Invoke(ctx context.Context, target string, input any, body BodyFunc) (any, error) {
	p := e.points[target]
	if p == nil {
		return body(ctx, input)
	}

	for _, b := range p.before {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.fn(ctx, input); err != nil {
			return nil, fmt.Errorf("hook: before %s (module %s): %w", target, b.owner, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result any
	var err error
	if p.replace != nil {
		result, err = p.replace(ctx, input)
	} else {
		result, err = body(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	for _, a := range p.after {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err = a.fn(ctx, input, result)
		if err != nil {
			return nil, fmt.Errorf("hook: after %s (module %s): %w", target, a.owner, err)
		}
	}
	return result, nil
}

// ConflictError is returned for a duplicate Replace binding or a
// registration after seal. Like registration conflicts, it is fatal at
// startup.
type ConflictError struct {
	Target   string
	Owner    string // module attempting the registration
	OldOwner string // module holding the existing replace binding, if any
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.OldOwner != "" {
		return fmt.Sprintf("hook: %s on target %q: module %q conflicts with module %q",
			e.Reason, e.Target, e.Owner, e.OldOwner)
	}
	return fmt.Sprintf("hook: cannot register on target %q from module %q: %s",
		e.Target, e.Owner, e.Reason)
}
