package api

import (
	"context"
	"net/url"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
)

// ListPlans returns the subscription plans.
func (c *Client) ListPlans(ctx context.Context) ([]catalog.Plan, error) {
	return getList[catalog.Plan](ctx, c, "/plans")
}

// ListFoods returns the food catalog.
func (c *Client) ListFoods(ctx context.Context) ([]catalog.Food, error) {
	return getList[catalog.Food](ctx, c, "/foods")
}

// ListExercises returns the exercise catalog.
func (c *Client) ListExercises(ctx context.Context) ([]catalog.Exercise, error) {
	return getList[catalog.Exercise](ctx, c, "/exercises")
}

// ListDietPlans returns the persisted diet plans.
func (c *Client) ListDietPlans(ctx context.Context) ([]dietplan.Remote, error) {
	return getList[dietplan.Remote](ctx, c, "/diet-plans")
}

// ListRoutines returns the persisted routines with their exercises.
func (c *Client) ListRoutines(ctx context.Context) ([]routine.Remote, error) {
	return getList[routine.Remote](ctx, c, "/routines")
}

// ListMyStudents returns the clients of the logged-in trainer.
func (c *Client) ListMyStudents(ctx context.Context) ([]catalog.Client, error) {
	return getList[catalog.Client](ctx, c, "/trainer/my-students")
}

// ListUsersByGoal returns the users whose goal is goal.
func (c *Client) ListUsersByGoal(ctx context.Context, goal string) ([]catalog.Client, error) {
	return getList[catalog.Client](ctx, c, "/users?goal="+url.QueryEscape(goal))
}

// GetSubscriptionSummary returns the revenue figures and per-plan rows of the subscriptions report.
func (c *Client) GetSubscriptionSummary(ctx context.Context) (catalog.SubscriptionSummary, error) {
	var out catalog.SubscriptionSummary
	if err := c.Get(ctx, "/subscriptions/summary", &out); err != nil {
		return catalog.SubscriptionSummary{}, err
	}
	if out.Rows == nil {
		out.Rows = []catalog.SubscriptionRow{}
	}
	return out, nil
}
