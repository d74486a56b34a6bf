package model

import (
	"strings"
	"time"

	"coupon-marketplace/internal/domain"

	"github.com/google/uuid"
)

type CouponStatus string

const (
	CouponStatusPending  CouponStatus = "pending"  // submitted, awaiting moderation
	CouponStatusApproved CouponStatus = "approved" // listed, can be bought
	CouponStatusRejected CouponStatus = "rejected" // refused by an admin
	CouponStatusSold     CouponStatus = "sold"     // consumed by a completed purchase; immutable
)

var couponNext = map[CouponStatus]map[CouponStatus]bool{
	CouponStatusPending:  {CouponStatusApproved: true, CouponStatusRejected: true},
	CouponStatusApproved: {CouponStatusPending: true, CouponStatusSold: true},
	CouponStatusRejected: {},
	CouponStatusSold:     {},
}

// CanTransition reports whether the coupon state machine allows from -> to.
func (s CouponStatus) CanTransition(to CouponStatus) bool {
	return couponNext[s][to]
}

func (s CouponStatus) Valid() bool {
	_, ok := couponNext[s]
	return ok
}

func ParseCouponStatus(s string) (CouponStatus, error) {
	st := CouponStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", domain.Validation("Invalid status", domain.FieldError{Field: "status", Message: "Unknown coupon status " + s})
	}
	return st, nil
}

// Coupon is a listing created by a seller. Price is in minor currency units.
type Coupon struct {
	ID             string
	Title          string
	Description    string
	Category       string
	RedemptionCode string
	ExpiryDate     time.Time
	Price          int64
	SellerID       string
	Quantity       int // tracked only; every coupon sells exactly once
	Status         CouponStatus
	Images         []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CouponDraft is the seller's submission.
type CouponDraft struct {
	Title          string
	Description    string
	Category       string
	RedemptionCode string
	ExpiryDate     time.Time
	Price          int64
	Quantity       int
	Images         []string
}

// CouponPatch holds the fields a seller wants to change. Nil means "leave as is".
type CouponPatch struct {
	Title       *string
	Description *string
	Category    *string
	ExpiryDate  *time.Time
	Price       *int64
	Quantity    *int
	Images      []string
}

func (p CouponPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.ExpiryDate == nil && p.Price == nil && p.Quantity == nil && p.Images == nil
}

// NewCoupon validates a draft against now and builds a pending coupon owned by sellerID.
func NewCoupon(sellerID string, d CouponDraft, now time.Time) (*Coupon, error) {
	if sellerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.RedemptionCode = strings.TrimSpace(d.RedemptionCode)
	if d.Quantity == 0 {
		d.Quantity = 1
	}

	var fe []domain.FieldError
	fe = checkTitle(fe, d.Title)
	fe = checkDescription(fe, d.Description)
	fe = checkCategory(fe, d.Category)
	if d.RedemptionCode == "" {
		fe = append(fe, domain.FieldError{Field: "redemptionCode", Message: "Redemption code is required"})
	}
	fe = checkPrice(fe, d.Price)
	fe = checkQuantity(fe, d.Quantity)
	fe = checkExpiry(fe, d.ExpiryDate, now)
	if len(fe) > 0 {
		return nil, domain.Validation("Invalid coupon", fe...)
	}

	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &Coupon{
		ID:             uuid.NewString(),
		Title:          d.Title,
		Description:    d.Description,
		Category:       d.Category,
		RedemptionCode: d.RedemptionCode,
		ExpiryDate:     d.ExpiryDate.UTC(),
		Price:          d.Price,
		SellerID:       sellerID,
		Quantity:       d.Quantity,
		Status:         CouponStatusPending,
		Images:         images,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ValidatePatch checks the supplied fields of p without touching any coupon.
func ValidatePatch(p CouponPatch, now time.Time) error {
	var fe []domain.FieldError
	if p.Title != nil {
		fe = checkTitle(fe, strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		fe = checkDescription(fe, strings.TrimSpace(*p.Description))
	}
	if p.Category != nil {
		fe = checkCategory(fe, strings.TrimSpace(*p.Category))
	}
	if p.Price != nil {
		fe = checkPrice(fe, *p.Price)
	}
	if p.Quantity != nil {
		fe = checkQuantity(fe, *p.Quantity)
	}
	if p.ExpiryDate != nil {
		fe = checkExpiry(fe, *p.ExpiryDate, now)
	}
	if len(fe) > 0 {
		return domain.Validation("Invalid coupon update", fe...)
	}
	return nil
}

// Apply validates and applies p. Sold coupons are immutable; an approved coupon goes back
// to pending so an admin reviews the new content.
func (c *Coupon) Apply(p CouponPatch, now time.Time) error {
	if c.Status == CouponStatusSold {
		return domain.Conflict("Cannot update sold coupon")
	}
	if err := ValidatePatch(p, now); err != nil {
		return err
	}
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		c.Category = strings.TrimSpace(*p.Category)
	}
	if p.ExpiryDate != nil {
		c.ExpiryDate = p.ExpiryDate.UTC()
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.Quantity != nil {
		c.Quantity = *p.Quantity
	}
	if p.Images != nil {
		c.Images = p.Images
	}
	if c.Status == CouponStatusApproved {
		c.Status = CouponStatusPending
	}
	c.UpdatedAt = now
	return nil
}

// Moderate moves a pending coupon to approved or rejected.
func (c *Coupon) Moderate(to CouponStatus, now time.Time) error {
	if to != CouponStatusApproved && to != CouponStatusRejected {
		return domain.ErrInvalidArgument
	}
	if c.Status != CouponStatusPending || !c.Status.CanTransition(to) {
		return domain.Conflict("Coupon is not pending approval")
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}

// CanDelete reports whether the coupon may still be removed by its owner.
func (c *Coupon) CanDelete() error {
	if c.Status == CouponStatusSold {
		return domain.Conflict("Cannot delete sold coupon")
	}
	return nil
}

// Purchasable reports whether buyers can currently act on the coupon.
func (c *Coupon) Purchasable() bool { return c.Status == CouponStatusApproved }

func (c *Coupon) Expired(now time.Time) bool { return !c.ExpiryDate.After(now) }

func (c *Coupon) IsZero() bool { return c == nil || c.ID == "" }

func checkTitle(fe []domain.FieldError, s string) []domain.FieldError {
	if len([]rune(s)) < 3 {
		fe = append(fe, domain.FieldError{Field: "title", Message: "Title must be at least 3 characters"})
	}
	return fe
}

func checkDescription(fe []domain.FieldError, s string) []domain.FieldError {
	if len([]rune(s)) < 10 {
		fe = append(fe, domain.FieldError{Field: "description", Message: "Description must be at least 10 characters"})
	}
	return fe
}

func checkCategory(fe []domain.FieldError, s string) []domain.FieldError {
	if s == "" {
		fe = append(fe, domain.FieldError{Field: "category", Message: "Category is required"})
	}
	return fe
}

func checkPrice(fe []domain.FieldError, p int64) []domain.FieldError {
	if p < 0 {
		fe = append(fe, domain.FieldError{Field: "price", Message: "Price must be a positive number"})
	}
	return fe
}

func checkQuantity(fe []domain.FieldError, q int) []domain.FieldError {
	if q < 1 {
		fe = append(fe, domain.FieldError{Field: "quantity", Message: "Quantity must be at least 1"})
	}
	return fe
}

func checkExpiry(fe []domain.FieldError, exp, now time.Time) []domain.FieldError {
	if !exp.After(now) {
		fe = append(fe, domain.FieldError{Field: "expiryDate", Message: "Expiry date must be in the future"})
	}
	return fe
}
