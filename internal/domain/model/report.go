package model

import "time"

// RevenueReport summarises platform income from completed purchases.
type RevenueReport struct {
	TotalRevenue    int64
	TotalSales      int
	TotalAmount     int64
	MonthlyRevenue  map[string]int64 // "YYYY-MM" -> platform fees, trailing 12 months
	RecentPurchases []*Purchase
}

// RevenueMonths returns the keys of the trailing 12 months ending with now's month (UTC).
func RevenueMonths(now time.Time) []string {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		out = append(out, first.AddDate(0, -i, 0).Format("2006-01"))
	}
	return out
}

// BuildRevenueReport aggregates completed purchases, newest first. recent caps RecentPurchases.
func BuildRevenueReport(completed []*Purchase, now time.Time, recent int) *RevenueReport {
	r := &RevenueReport{MonthlyRevenue: make(map[string]int64, 12)}
	for _, m := range RevenueMonths(now) {
		r.MonthlyRevenue[m] = 0
	}
	for _, p := range completed {
		if p.Status != PurchaseStatusCompleted {
			continue
		}
		r.TotalRevenue += p.PlatformFee
		r.TotalAmount += p.AmountPaid
		r.TotalSales++
		key := p.PurchasedAt.UTC().Format("2006-01")
		if _, ok := r.MonthlyRevenue[key]; ok {
			r.MonthlyRevenue[key] += p.PlatformFee
		}
		if len(r.RecentPurchases) < recent {
			r.RecentPurchases = append(r.RecentPurchases, p)
		}
	}
	return r
}

// Dashboard is the admin landing page data.
type Dashboard struct {
	Counts            map[CouponStatus]int
	TotalRevenue      int64
	RecentSubmissions []*Coupon
}
