package order

import "github.com/shopspring/decimal"

// Stats is the aggregate snapshot derived from an order list. It is computed,
// never stored.
type Stats struct {
	Total             int             `json:"total"`
	Pending           int             `json:"pending"`
	Confirmed         int             `json:"confirmed"`
	Preparing         int             `json:"preparing"`
	Ready             int             `json:"ready"`
	Completed         int             `json:"completed"`
	Cancelled         int             `json:"cancelled"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// ComputeStats is a pure recount over the full list. Revenue sums every order
// regardless of status, cancelled included. An order with a status outside the
// known set counts toward Total only.
func ComputeStats(orders []Order) Stats {
	st := Stats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for i := range orders {
		st.Total++
		st.TotalRevenue = st.TotalRevenue.Add(orders[i].TotalAmount)
		switch orders[i].Status {
		case StatusPending:
			st.Pending++
		case StatusConfirmed:
			st.Confirmed++
		case StatusPreparing:
			st.Preparing++
		case StatusReady:
			st.Ready++
		case StatusCompleted:
			st.Completed++
		case StatusCancelled:
			st.Cancelled++
		}
	}
	if st.Total > 0 {
		st.AverageOrderValue = st.TotalRevenue.DivRound(decimal.NewFromInt(int64(st.Total)), 2)
	}
	return st
}
