package projections

import (
	"context"
	"errors"

	"trainerdash/internal/domain/assignment"
)

// ErrTargetNotFound means the diet plan or routine to assign is not in the stored list.
var ErrTargetNotFound = errors.New("the plan to assign was not found")

// QueryGetAssignmentTarget resolves a persisted diet plan or routine to the target the
// assignment modal opens on. A diet plan carries its goal so candidates can be matched.
// POST: an id missing from the cache triggers one refetch before ErrTargetNotFound
func QueryGetAssignmentTarget(ctx context.Context, kind assignment.Kind, id int64, deps ListDeps) (assignment.Target, error) {
	if id <= 0 {
		return assignment.Target{}, assignment.ErrMissingTarget
	}
	for _, refresh := range []bool{false, true} {
		switch kind {
		case assignment.KindDietPlan:
			plans, err := deps.dietPlans(ctx, refresh)
			if err != nil {
				return assignment.Target{}, err
			}
			for _, p := range plans {
				if p.ID == id {
					return assignment.Target{Kind: kind, ID: id, Name: p.Name, Goal: p.Goal}, nil
				}
			}
		case assignment.KindRoutine:
			routines, err := deps.routines(ctx, refresh)
			if err != nil {
				return assignment.Target{}, err
			}
			for _, r := range routines {
				if r.ID == id {
					return assignment.Target{Kind: kind, ID: id, Name: r.Name}, nil
				}
			}
		default:
			return assignment.Target{}, assignment.ErrInvalidKind
		}
	}
	return assignment.Target{}, ErrTargetNotFound
}
