package projections

import (
	"context"
	"strings"

	"trainerdash/internal/application/listutil"
	"trainerdash/internal/domain/catalog"
)

// SubscriptionReporter fetches the subscriptions report.
type SubscriptionReporter interface {
	GetSubscriptionSummary(ctx context.Context) (catalog.SubscriptionSummary, error)
}

// SubscriptionsDeps holds dependencies for QueryGetSubscriptionSummary.
type SubscriptionsDeps struct {
	API SubscriptionReporter
}

// SubscriptionsView is the subscriptions screen: headline figures plus the matching plan rows.
type SubscriptionsView struct {
	Stats  catalog.SubscriptionStats `json:"stats"`
	Rows   []catalog.SubscriptionRow `json:"rows"`
	Total  int                       `json:"total"`
	Search string                    `json:"search,omitempty"`
}

var subscriptionMatcher = listutil.Matcher[catalog.SubscriptionRow]{
	Search: []func(catalog.SubscriptionRow) string{
		func(r catalog.SubscriptionRow) string { return r.PlanName },
	},
}

// QueryGetSubscriptionSummary fetches the report on every call and searches its rows by plan name.
// POST: Stats always cover every plan; Total counts rows before the search
func QueryGetSubscriptionSummary(ctx context.Context, search string, deps SubscriptionsDeps) (SubscriptionsView, error) {
	sum, err := deps.API.GetSubscriptionSummary(ctx)
	if err != nil {
		return SubscriptionsView{}, err
	}
	search = strings.TrimSpace(search)
	return SubscriptionsView{
		Stats:  sum.Stats,
		Rows:   listutil.Filter(sum.Rows, subscriptionMatcher, listutil.FilterParams{Search: search}),
		Total:  len(sum.Rows),
		Search: search,
	}, nil
}
