package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/application/listutil"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/application/projections"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "trainerctl",
		Short:         "Manage diet plans, routines and assignments from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(a.out)
	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newAssignCmd(a),
		newDeleteCmd(a),
	)
	return root
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a trainer or admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if password == "" {
				// Read from stdin so the password stays out of shell history.
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			sess, err := orchestrators.ExecuteLogin(cmd.Context(), orchestrators.LoginInput{
				Email:    email,
				Password: password,
				IP:       "cli",
			}, orchestrators.LoginDeps{
				API:        a.client,
				Sessions:   a.sessions,
				Audit:      a.audit,
				GenerateID: func() string { return cliSessionID },
				Now:        a.now,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s) until %s\n",
				sess.User.Name, sess.User.Role, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, _, err := a.actor(cmd.Context())
			if errors.Is(err, ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}
			err = orchestrators.ExecuteLogout(cmd.Context(), actor, orchestrators.LogoutDeps{
				Sessions:   a.sessions,
				Workspaces: a.workspaces,
				Audit:      a.audit,
				Now:        a.now,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, _, err := a.actor(cmd.Context())
			if err != nil {
				return err
			}
			u := actor.Session.User
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s id=%d\n", u.Name, u.Email, u.Role, u.ID)
			return nil
		},
	}
}

// listQuery runs one list projection and returns its JSON-ready result.
type listQuery struct {
	keys []string
	run  func(ctx context.Context, p listutil.ListParams, deps projections.ListDeps) (any, error)
}

func wrapList[R any](keys []string, q func(context.Context, listutil.ListParams, projections.ListDeps) (projections.ListResult[R], error)) listQuery {
	return listQuery{keys: keys, run: func(ctx context.Context, p listutil.ListParams, deps projections.ListDeps) (any, error) {
		return q(ctx, p, deps)
	}}
}

var listQueries = map[string]listQuery{
	"clients":    wrapList(projections.ClientFilterKeys, projections.QueryGetClientList),
	"plans":      wrapList(projections.PlanFilterKeys, projections.QueryGetPlanList),
	"foods":      wrapList(projections.FoodFilterKeys, projections.QueryGetFoodList),
	"exercises":  wrapList(projections.ExerciseFilterKeys, projections.QueryGetExerciseList),
	"routines":   wrapList(projections.RoutineFilterKeys, projections.QueryGetRoutineList),
	"diet-plans": wrapList(projections.DietPlanFilterKeys, projections.QueryGetDietPlanList),
}

func listKinds() []string {
	return []string{"clients", "plans", "foods", "exercises", "routines", "diet-plans"}
}

func newListCmd(a *app) *cobra.Command {
	var (
		search  string
		filters []string
		page    int
		perPage int
	)
	cmd := &cobra.Command{
		Use:       "list <" + strings.Join(listKinds(), "|") + ">",
		Short:     "List, search and filter a collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: listKinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, ok := listQueries[args[0]]
			if !ok {
				return fmt.Errorf("unknown collection %q (want one of %s)", args[0], strings.Join(listKinds(), ", "))
			}
			actor, client, err := a.actor(cmd.Context())
			if err != nil {
				return err
			}
			values := url.Values{}
			values.Set("q", search)
			if page > 0 {
				values.Set("page", strconv.Itoa(page))
			}
			if perPage > 0 {
				values.Set("per_page", strconv.Itoa(perPage))
			}
			for _, f := range filters {
				key, value, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("filter %q must look like key=value", f)
				}
				values.Set(key, value)
			}
			result, err := q.run(cmd.Context(), listutil.ParseListParams(values, q.keys), projections.ListDeps{
				API:       client,
				Workspace: a.workspaces.Get(actor.Session.ID),
				Now:       a.now,
			})
			if err != nil {
				return a.upstreamError(cmd.Context(), err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive text search")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value, repeatable")
	cmd.Flags().IntVar(&page, "page", 0, "page number (1-based)")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "rows per page")
	return cmd
}

func newAssignCmd(a *app) *cobra.Command {
	var (
		mode       string
		recipients []int64
		start, end string
		planID     int64
		tier, goal string
	)
	cmd := &cobra.Command{
		Use:   "assign <diet|routine> <id>",
		Short: "Assign a saved diet plan or routine to students",
		Long: "Individual mode sends the plan to the students given with --to.\n" +
			"Mass mode lets the API pick recipients: --tier and --goal for diets, --plan-id for routines.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseAssignKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			m, err := assignment.ParseMode(mode)
			if err != nil {
				return err
			}
			actor, client, err := a.actor(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ws := a.workspaces.Get(actor.Session.ID)

			target, err := projections.QueryGetAssignmentTarget(ctx, kind, id, projections.ListDeps{API: client, Workspace: ws, Now: a.now})
			if err != nil {
				return a.upstreamError(ctx, err)
			}
			deps := orchestrators.AssignmentDeps{API: client, Workspace: ws, Audit: a.audit, Now: a.now}
			modal, err := orchestrators.ExecuteOpenAssignment(ctx, orchestrators.OpenAssignmentInput{Target: target, Mode: m}, deps)
			if err != nil {
				return err
			}
			if modal.Error != nil {
				return fmt.Errorf("%s: %s", modal.Error.Title, modal.Error.Message)
			}
			for _, rid := range recipients {
				if _, err := orchestrators.EditAssignment(ws, func(md *assignment.Modal) error { return md.Toggle(rid) }); err != nil {
					return fmt.Errorf("student %d: %w", rid, err)
				}
			}
			res, err := orchestrators.ExecuteSubmitAssignment(ctx, actor, orchestrators.SubmitAssignmentInput{
				StartDate: start,
				EndDate:   end,
				PlanID:    planID,
				Tier:      catalog.Tier(tier),
				Goal:      goal,
			}, deps)
			if err != nil {
				fb := feedback.FromError(target.Action(m), err)
				return fmt.Errorf("%s: %s: %w", fb.Title, fb.Message, a.upstreamError(ctx, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Feedback.Title, res.Feedback.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(assignment.ModeIndividual), "individual or mass")
	cmd.Flags().Int64SliceVar(&recipients, "to", nil, "student ids (individual mode)")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "optional end date YYYY-MM-DD")
	cmd.Flags().Int64Var(&planID, "plan-id", 0, "subscription plan id (mass routine)")
	cmd.Flags().StringVar(&tier, "tier", "", "target tier (mass diet, default Pro)")
	cmd.Flags().StringVar(&goal, "goal", "", "optional goal filter (mass)")
	return cmd
}

func parseAssignKind(raw string) (assignment.Kind, error) {
	switch strings.ToLower(raw) {
	case "diet", "diet-plan", "diet_plan":
		return assignment.KindDietPlan, nil
	}
	return assignment.ParseKind(raw)
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <routine|diet_plan|food|exercise> <id>",
		Short: "Delete a resource upstream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := api.ParseResource(strings.ReplaceAll(args[0], "-", "_"))
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s %d without --yes", res, id)
			}
			actor, client, err := a.actor(cmd.Context())
			if err != nil {
				return err
			}
			fb, err := orchestrators.ExecuteDeleteResource(cmd.Context(), actor, orchestrators.DeleteResourceInput{
				Resource: res,
				ID:       id,
			}, orchestrators.DeleteResourceDeps{
				API:       client,
				Workspace: a.workspaces.Get(actor.Session.ID),
				Audit:     a.audit,
				Now:       a.now,
			})
			if err != nil {
				return a.upstreamError(cmd.Context(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", fb.Title, fb.Message)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
