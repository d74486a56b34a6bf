package web

import (
	"time"

	"coupon-marketplace/internal/domain/model"
)

// Coupon read models never carry the redemption code.
type couponDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ExpiryDate  time.Time `json:"expiryDate"`
	Price       int64     `json:"price"`
	SellerID    string    `json:"sellerId"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCouponDTO(c *model.Coupon) couponDTO {
	images := c.Images
	if images == nil {
		images = []string{}
	}
	return couponDTO{
		ID: c.ID, Title: c.Title, Description: c.Description, Category: c.Category,
		ExpiryDate: c.ExpiryDate, Price: c.Price, SellerID: c.SellerID, Quantity: c.Quantity,
		Status: string(c.Status), Images: images, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toCouponDTOs(cs []*model.Coupon) []couponDTO {
	out := make([]couponDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCouponDTO(c))
	}
	return out
}

type couponSummaryDTO struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Price    int64    `json:"price"`
	Images   []string `json:"images"`
}

// purchaseDTO is the seller-side shape.
type purchaseDTO struct {
	ID             string            `json:"id"`
	CouponID       string            `json:"couponId"`
	CouponTitle    string            `json:"couponTitle,omitempty"`
	Coupon         *couponSummaryDTO `json:"coupon,omitempty"`
	BuyerID        string            `json:"buyerId"`
	SellerID       string            `json:"sellerId"`
	AmountPaid     int64             `json:"amountPaid"`
	PlatformFee    int64             `json:"platformFee"`
	SellerEarnings int64             `json:"sellerEarnings"`
	Status         string            `json:"status"`
	PurchasedAt    time.Time         `json:"purchasedAt"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// buyerPurchaseDTO adds the redemption code, null until payment.
type buyerPurchaseDTO struct {
	purchaseDTO
	RedemptionCode *string `json:"redemptionCode"`
}

func toPurchaseDTO(p *model.Purchase, couponTitle string) purchaseDTO {
	return purchaseDTO{
		ID: p.ID, CouponID: p.CouponID, CouponTitle: couponTitle, BuyerID: p.BuyerID, SellerID: p.SellerID,
		AmountPaid: p.AmountPaid, PlatformFee: p.PlatformFee, SellerEarnings: p.SellerEarnings,
		Status: string(p.Status), PurchasedAt: p.PurchasedAt, CreatedAt: p.CreatedAt,
	}
}

func toBuyerPurchaseDTO(p *model.Purchase, couponTitle string) buyerPurchaseDTO {
	return buyerPurchaseDTO{purchaseDTO: toPurchaseDTO(p, couponTitle), RedemptionCode: p.VisibleRedemptionCode()}
}

func summary(v *model.PurchaseView) *couponSummaryDTO {
	images := v.Coupon.Images
	if images == nil {
		images = []string{}
	}
	return &couponSummaryDTO{Title: v.Coupon.Title, Category: v.Coupon.Category, Price: v.Coupon.Price, Images: images}
}

func toBuyerViews(vs []*model.PurchaseView) []buyerPurchaseDTO {
	out := make([]buyerPurchaseDTO, 0, len(vs))
	for _, v := range vs {
		d := toBuyerPurchaseDTO(&v.Purchase, "")
		d.Coupon = summary(v)
		out = append(out, d)
	}
	return out
}

func toSellerViews(vs []*model.PurchaseView) []purchaseDTO {
	out := make([]purchaseDTO, 0, len(vs))
	for _, v := range vs {
		d := toPurchaseDTO(&v.Purchase, "")
		d.Coupon = summary(v)
		out = append(out, d)
	}
	return out
}

type revenueDTO struct {
	TotalRevenue    int64            `json:"totalRevenue"`
	TotalSales      int              `json:"totalSales"`
	TotalAmount     int64            `json:"totalAmount"`
	MonthlyRevenue  map[string]int64 `json:"monthlyRevenue"`
	RecentPurchases []purchaseDTO    `json:"recentPurchases"`
}

func toRevenueDTO(r *model.RevenueReport) revenueDTO {
	recent := make([]purchaseDTO, 0, len(r.RecentPurchases))
	for _, p := range r.RecentPurchases {
		recent = append(recent, toPurchaseDTO(p, ""))
	}
	return revenueDTO{
		TotalRevenue: r.TotalRevenue, TotalSales: r.TotalSales, TotalAmount: r.TotalAmount,
		MonthlyRevenue: r.MonthlyRevenue, RecentPurchases: recent,
	}
}

type dashboardDTO struct {
	Stats struct {
		Pending      int   `json:"pending"`
		Approved     int   `json:"approved"`
		Rejected     int   `json:"rejected"`
		Sold         int   `json:"sold"`
		TotalRevenue int64 `json:"totalRevenue"`
	} `json:"stats"`
	RecentSubmissions []couponDTO `json:"recentSubmissions"`
}

func toDashboardDTO(d *model.Dashboard) dashboardDTO {
	var out dashboardDTO
	out.Stats.Pending = d.Counts[model.CouponStatusPending]
	out.Stats.Approved = d.Counts[model.CouponStatusApproved]
	out.Stats.Rejected = d.Counts[model.CouponStatusRejected]
	out.Stats.Sold = d.Counts[model.CouponStatusSold]
	out.Stats.TotalRevenue = d.TotalRevenue
	out.RecentSubmissions = toCouponDTOs(d.RecentSubmissions)
	return out
}

// ---- requests ----

type createCouponRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	RedemptionCode string    `json:"redemptionCode"`
	ExpiryDate     time.Time `json:"expiryDate"`
	Price          int64     `json:"price"`
	Quantity       int       `json:"quantity"`
	Images         []string  `json:"images"`
}

func (r createCouponRequest) draft() model.CouponDraft {
	return model.CouponDraft{
		Title: r.Title, Description: r.Description, Category: r.Category, RedemptionCode: r.RedemptionCode,
		ExpiryDate: r.ExpiryDate, Price: r.Price, Quantity: r.Quantity, Images: r.Images,
	}
}

type updateCouponRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	Price       *int64     `json:"price"`
	Quantity    *int       `json:"quantity"`
	Images      []string   `json:"images"`
}

func (r updateCouponRequest) patch() model.CouponPatch {
	return model.CouponPatch{
		Title: r.Title, Description: r.Description, Category: r.Category, ExpiryDate: r.ExpiryDate,
		Price: r.Price, Quantity: r.Quantity, Images: r.Images,
	}
}

type purchaseRequest struct {
	CouponID string `json:"couponId"`
}
