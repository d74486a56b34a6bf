package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		couponTransitionsTotal,
		purchaseTransitionsTotal,
		saleConflictsTotal,
		platformRevenueTotal,
	)
}

var (
	couponTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_coupon_transitions_total",
			Help: "Coupons entering each status.",
		},
		[]string{"status"}, // pending|approved|rejected|sold
	)

	purchaseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_purchase_transitions_total",
			Help: "Purchases entering each status.",
		},
		[]string{"status"}, // pending|accepted|completed
	)

	saleConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_sale_conflicts_total",
			Help: "Payments rejected because the coupon was already sold.",
		},
	)

	platformRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_platform_revenue_minor_total",
			Help: "Platform fees collected, in minor currency units.",
		},
	)
)

func IncCouponTransition(status string) {
	couponTransitionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncPurchaseTransition(status string) {
	purchaseTransitionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncSaleConflict() { saleConflictsTotal.Inc() }

func AddPlatformRevenue(fee int64) {
	if fee > 0 {
		platformRevenueTotal.Add(float64(fee))
	}
}
