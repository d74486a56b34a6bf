package model

import (
	"strings"
	"time"

	"coupon-marketplace/internal/domain"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"   // requested by the buyer
	PurchaseStatusAccepted  PurchaseStatus = "accepted"  // accepted by the seller, awaiting payment
	PurchaseStatusCompleted PurchaseStatus = "completed" // paid; terminal
)

var purchaseNext = map[PurchaseStatus]map[PurchaseStatus]bool{
	PurchaseStatusPending:   {PurchaseStatusAccepted: true},
	PurchaseStatusAccepted:  {PurchaseStatusCompleted: true},
	PurchaseStatusCompleted: {},
}

func (s PurchaseStatus) CanTransition(to PurchaseStatus) bool {
	return purchaseNext[s][to]
}

// Active reports whether a purchase in this status blocks another request for the same
// (coupon, buyer) pair. Completed purchases count: a buyer buys a coupon once.
func (s PurchaseStatus) Active() bool {
	_, ok := purchaseNext[s]
	return ok
}

// ParsePurchaseStatus accepts the legacy "paid" spelling as completed.
func ParsePurchaseStatus(s string) (PurchaseStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "paid" {
		return PurchaseStatusCompleted, nil
	}
	st := PurchaseStatus(v)
	if _, ok := purchaseNext[st]; !ok {
		return "", domain.ErrInvalidArgument
	}
	return st, nil
}

// DefaultPlatformFeePercent is the commission the marketplace keeps on every sale.
const DefaultPlatformFeePercent int64 = 20

// FeeSplit is how a sale price is divided. AmountPaid == PlatformFee + SellerEarnings.
type FeeSplit struct {
	AmountPaid     int64
	PlatformFee    int64
	SellerEarnings int64
}

// SplitFee rounds the platform share half-up to the nearest minor unit; the seller gets the
// remainder so the parts always add up to the price.
func SplitFee(price, feePercent int64) FeeSplit {
	if price < 0 {
		price = 0
	}
	if feePercent < 0 || feePercent > 100 {
		feePercent = DefaultPlatformFeePercent
	}
	fee := (price*feePercent + 50) / 100
	return FeeSplit{
		AmountPaid:     price,
		PlatformFee:    fee,
		SellerEarnings: price - fee,
	}
}

// Purchase is a buyer's claim on a coupon. Price and redemption code are snapshotted at
// request time and never recomputed.
type Purchase struct {
	ID                     string
	CouponID               string
	BuyerID                string
	SellerID               string
	AmountPaid             int64
	PlatformFee            int64
	SellerEarnings         int64
	RedemptionCode         string
	RedemptionCodeRevealed bool
	Status                 PurchaseStatus
	PurchasedAt            time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewPurchase checks the coupon-side preconditions of a purchase request and builds the
// pending purchase. The duplicate-request check needs storage and lives in the use case.
func NewPurchase(c *Coupon, buyerID string, feePercent int64, now time.Time) (*Purchase, error) {
	if c.IsZero() || buyerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !c.Purchasable() {
		return nil, domain.ErrCouponNotForSale
	}
	if c.SellerID == buyerID {
		return nil, domain.Conflict("Cannot purchase your own coupon")
	}
	split := SplitFee(c.Price, feePercent)
	return &Purchase{
		ID:             uuid.NewString(),
		CouponID:       c.ID,
		BuyerID:        buyerID,
		SellerID:       c.SellerID,
		AmountPaid:     split.AmountPaid,
		PlatformFee:    split.PlatformFee,
		SellerEarnings: split.SellerEarnings,
		RedemptionCode: c.RedemptionCode,
		Status:         PurchaseStatusPending,
		PurchasedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (p *Purchase) Accept(now time.Time) error {
	if p.Status != PurchaseStatusPending {
		return domain.Conflict("Purchase request is not pending")
	}
	p.Status = PurchaseStatusAccepted
	p.UpdatedAt = now
	return nil
}

// CheckPayable is the purchase-side precondition of a payment.
func (p *Purchase) CheckPayable() error {
	if p.Status != PurchaseStatusAccepted {
		return domain.Conflict("Purchase request must be accepted by seller first")
	}
	return nil
}

// Complete finalizes a paid purchase and reveals the redemption code.
func (p *Purchase) Complete(now time.Time) error {
	if err := p.CheckPayable(); err != nil {
		return err
	}
	p.Status = PurchaseStatusCompleted
	p.RedemptionCodeRevealed = true
	p.PurchasedAt = now
	p.UpdatedAt = now
	return nil
}

// VisibleRedemptionCode is the code as buyers may see it: nil until payment completes.
func (p *Purchase) VisibleRedemptionCode() *string {
	if !p.RedemptionCodeRevealed {
		return nil
	}
	code := p.RedemptionCode
	return &code
}

// CouponSummary is the listing data shown next to a purchase.
type CouponSummary struct {
	Title    string
	Category string
	Price    int64
	Images   []string
}

// PurchaseView is a purchase joined with the current coupon summary.
type PurchaseView struct {
	Purchase
	Coupon CouponSummary
}
