package api

import (
	"context"
	"errors"
	"fmt"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
	"trainerdash/internal/domain/session"
)

// Resource names a deletable collection.
type Resource string

const (
	ResourceRoutine  Resource = "routine"
	ResourceDietPlan Resource = "diet_plan"
	ResourceFood     Resource = "food"
	ResourceExercise Resource = "exercise"
)

var ErrUnknownResource = errors.New("resource must be routine, diet_plan, food or exercise")

var resourcePaths = map[Resource]string{
	ResourceRoutine:  "/routines",
	ResourceDietPlan: "/diet-plans",
	ResourceFood:     "/foods",
	ResourceExercise: "/exercises",
}

// ParseResource validates a resource name.
func ParseResource(raw string) (Resource, error) {
	r := Resource(raw)
	if _, ok := resourcePaths[r]; !ok {
		return "", ErrUnknownResource
	}
	return r, nil
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
// POST: returns session.ErrMissingToken if the API answered without one
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.Post(ctx, "/auth/login", body, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.Token == "" {
		return LoginResponse{}, session.ErrMissingToken
	}
	return out, nil
}

// Register creates a client account.
// PRE: reg passed Validate and is Prepared
func (c *Client) Register(ctx context.Context, reg catalog.Registration) error {
	return c.Post(ctx, "/auth/register", reg, nil)
}

// UpdatePlan edits a subscription plan.
func (c *Client) UpdatePlan(ctx context.Context, id int64, upd catalog.PlanUpdate) error {
	return c.Put(ctx, fmt.Sprintf("/plans/%d", id), upd, nil)
}

// created is the part of a create response the dashboard needs.
type created struct {
	ID   int64 `json:"id"`
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

func (c created) id() int64 {
	if c.ID != 0 {
		return c.ID
	}
	return c.Data.ID
}

// CreateDietPlan persists a diet plan and returns its id (0 if the API did not send one).
func (c *Client) CreateDietPlan(ctx context.Context, req dietplan.SaveRequest) (int64, error) {
	var out created
	if err := c.Post(ctx, "/diet-plans", req, &out); err != nil {
		return 0, err
	}
	return out.id(), nil
}

// SaveRoutine creates the routine when id is 0, else replaces routine id.
func (c *Client) SaveRoutine(ctx context.Context, id int64, req routine.SaveRequest) (int64, error) {
	if id != 0 {
		if err := c.Put(ctx, fmt.Sprintf("/routines/%d", id), req, nil); err != nil {
			return 0, err
		}
		return id, nil
	}
	var out created
	if err := c.Post(ctx, "/routines", req, &out); err != nil {
		return 0, err
	}
	return out.id(), nil
}

// Assign posts one assignment request built by assignment.Request.Build.
func (c *Client) Assign(ctx context.Context, endpoint string, payload any) error {
	return c.Post(ctx, endpoint, payload, nil)
}

// DeleteResource removes one routine, diet plan, food or exercise.
func (c *Client) DeleteResource(ctx context.Context, r Resource, id int64) error {
	base, ok := resourcePaths[r]
	if !ok {
		return ErrUnknownResource
	}
	return c.Delete(ctx, fmt.Sprintf("%s/%d", base, id))
}

// SaveFood creates a food when id is 0, else edits food id.
// Foods travel as multipart forms; edits use POST with _method=PUT.
func (c *Client) SaveFood(ctx context.Context, id int64, in catalog.FoodInput) (int64, error) {
	fields := in.FormFields()
	path := "/foods"
	if id != 0 {
		fields["_method"] = "PUT"
		path = fmt.Sprintf("/foods/%d", id)
	}
	var out created
	if err := c.PostForm(ctx, path, fields, &out); err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}
	return out.id(), nil
}

// SaveExercise creates an exercise when id is 0, else replaces exercise id.
func (c *Client) SaveExercise(ctx context.Context, id int64, in catalog.ExerciseInput) (int64, error) {
	if id != 0 {
		if err := c.Put(ctx, fmt.Sprintf("/exercises/%d", id), in, nil); err != nil {
			return 0, err
		}
		return id, nil
	}
	var out created
	if err := c.Post(ctx, "/exercises", in, &out); err != nil {
		return 0, err
	}
	return out.id(), nil
}
