package catalog

// SubscriptionStats are the headline figures of the subscriptions report.
type SubscriptionStats struct {
	MonthlyRevenue      Number `json:"mrr"`
	ActiveSubscriptions int    `json:"activeSubs"`
}

// SubscriptionRow is one subscription plan line of the report.
type SubscriptionRow struct {
	ID           int64  `json:"id"`
	PlanName     string `json:"plan_name"`
	Price        Number `json:"price"`
	Cycle        string `json:"cycle"`
	ClientsCount int    `json:"clients_count"`
	Status       Flag   `json:"status"`
	TotalRevenue Number `json:"total_revenue"`
}

// SubscriptionSummary is the body of GET /subscriptions/summary.
type SubscriptionSummary struct {
	Stats SubscriptionStats `json:"stats"`
	Rows  []SubscriptionRow `json:"table_data"`
}
