package rules

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// match returns the first condition in r that fires for obj
func (r Rule) match(obj Object) (Condition, bool) {
	for _, cond := range r.Conditions {
		if cond.Matches(obj) {
			return cond, true
		}
	}
	return Condition{}, false
}

// Evaluate walks key for obj starting at rule 1 until a result fires or a
// reached rule has no matching condition, in which case the object is
// indeterminate. A goto to a missing rule, to the current rule, or to any
// rule already visited for this object is an *EvalError.
func Evaluate(key Key, obj Object) (Classification, error) {
	out := Classification{Object: obj.Name}
	visited := make(map[int]bool, len(key.Rules))

	fail := func(from, target int, err error) (Classification, error) {
		return Classification{}, &EvalError{
			Object: obj.Name,
			From:   from,
			Target: target,
			Path:   slices.Clone(out.Path),
			Err:    err,
		}
	}

	if len(key.Rules) == 0 {
		return fail(0, 0, ErrEmptyKey)
	}

	cur := 1
	for {
		// goto targets are range-checked below, so cur is always valid
		rule, _ := key.Rule(cur)
		visited[cur] = true
		out.Path = append(out.Path, cur)

		cond, matched := rule.match(obj)
		if !matched {
			out.Indeterminate = true
			return out, nil
		}

		switch cond.Action.Kind {
		case ActionResult:
			out.Label = cond.Action.Label
			return out, nil
		case ActionGoto:
			next := cond.Action.Target
			switch {
			case next < 1 || next > len(key.Rules):
				return fail(cur, next, ErrTargetNotFound)
			case next == cur:
				return fail(cur, next, ErrInfiniteLoop)
			case visited[next]:
				return fail(cur, next, ErrCycle)
			}
			cur = next
		default:
			return fail(cur, 0, fmt.Errorf("%w: %d", ErrActionKind, int(cond.Action.Kind)))
		}
	}
}

// RunAll classifies every object in order. Any evaluation error aborts the
// whole batch and no results are returned.
func RunAll(key Key, objects []Object) ([]Classification, error) {
	results := make([]Classification, 0, len(objects))
	for _, obj := range objects {
		c, err := Evaluate(key, obj)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, nil
}

// RunAllParallel is RunAll spread over up to workers goroutines. Results keep
// input order, and the error returned is the one RunAll would return: the
// failure of the earliest object. Objects after a known failure are not
// started.
func RunAllParallel(ctx context.Context, key Key, objects []Object, workers int) ([]Classification, error) {
	if workers <= 1 {
		return RunAll(key, objects)
	}

	results := make([]Classification, len(objects))
	errs := make([]error, len(objects))

	// index of the earliest failed object so far, len(objects) if none
	var firstFailed atomic.Int64
	firstFailed.Store(int64(len(objects)))
	skip := func(i int) bool {
		return ctx.Err() != nil || int64(i) > firstFailed.Load()
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, obj := range objects {
		if skip(i) {
			break
		}
		g.Go(func() error {
			if skip(i) {
				return nil
			}
			c, err := Evaluate(key, obj)
			if err != nil {
				errs[i] = err
				for {
					cur := firstFailed.Load()
					if int64(i) >= cur || firstFailed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return nil
			}
			results[i] = c
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// every object before the earliest failure was evaluated, so this is
	// the error a sequential run stops at
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
