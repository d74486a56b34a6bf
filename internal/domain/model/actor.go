package model

import "coupon-marketplace/internal/domain"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsZero() bool  { return a.UserID == "" }
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Relation names what the actor must be to a resource.
type Relation int

const (
	RelationOwner  Relation = iota // seller who listed the coupon
	RelationSeller                 // seller side of a purchase
	RelationBuyer                  // buyer side of a purchase
	RelationAdmin                  // platform moderator
)

// Authorize is the single capability check used by every use case.
// resource may be *Coupon, *Purchase or nil (admin-only checks).
func Authorize(a Actor, resource any, rel Relation, msg string) error {
	if a.IsZero() {
		return domain.ErrUnauthenticated
	}
	ok := false
	switch rel {
	case RelationAdmin:
		ok = a.IsAdmin()
	case RelationOwner:
		if c, isCoupon := resource.(*Coupon); isCoupon && c != nil {
			ok = c.SellerID == a.UserID
		}
	case RelationSeller:
		if p, isPurchase := resource.(*Purchase); isPurchase && p != nil {
			ok = p.SellerID == a.UserID
		}
	case RelationBuyer:
		if p, isPurchase := resource.(*Purchase); isPurchase && p != nil {
			ok = p.BuyerID == a.UserID
		}
	}
	if !ok {
		if msg == "" {
			msg = "Not authorized"
		}
		return domain.Forbidden(msg)
	}
	return nil
}
