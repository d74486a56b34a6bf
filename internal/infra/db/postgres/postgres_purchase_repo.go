package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*PostgresPurchaseRepo)(nil)

type PostgresPurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPurchaseRepo(pool *pgxpool.Pool) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{pool: pool}
}

const purchaseColumns = `p.id, p.coupon_id, p.buyer_id, p.seller_id, p.amount_paid, p.platform_fee,
       p.seller_earnings, p.redemption_code, p.redemption_code_revealed, p.status,
       p.purchased_at, p.created_at, p.updated_at`

func purchaseDest(p *model.Purchase, status *string) []any {
	return []any{
		&p.ID, &p.CouponID, &p.BuyerID, &p.SellerID, &p.AmountPaid, &p.PlatformFee,
		&p.SellerEarnings, &p.RedemptionCode, &p.RedemptionCodeRevealed, status,
		&p.PurchasedAt, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	var p model.Purchase
	var status string
	if err := row.Scan(purchaseDest(&p, &status)...); err != nil {
		return nil, err
	}
	p.Status = model.PurchaseStatus(status)
	return &p, nil
}

func (r *PostgresPurchaseRepo) Create(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (
  id, coupon_id, buyer_id, seller_id, amount_paid, platform_fee, seller_earnings,
  redemption_code, redemption_code_revealed, status, purchased_at, created_at, updated_at
)
SELECT $1::uuid, $2::uuid, $3::text, $4::text, $5::bigint, $6::bigint, $7::bigint,
       $8::text, $9::boolean, $10::text, $11::timestamptz, $12::timestamptz, $13::timestamptz
 WHERE EXISTS (SELECT 1 FROM coupons WHERE id = $2::uuid AND status = 'approved');
`
	tag, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.CouponID, p.BuyerID, p.SellerID, p.AmountPaid, p.PlatformFee, p.SellerEarnings,
		p.RedemptionCode, p.RedemptionCodeRevealed, string(p.Status), p.PurchasedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePurchase
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotForSale
	}
	return nil
}

func (r *PostgresPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	if !validID(id) {
		return nil, domain.ErrPurchaseNotFound
	}
	q := `SELECT ` + purchaseColumns + ` FROM purchases p WHERE p.id = $1` + forUpdate(tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	return p, nil
}

// FindActive returns (nil, nil) when the buyer holds no live purchase of the coupon.
func (r *PostgresPurchaseRepo) FindActive(ctx context.Context, tx repository.Tx, couponID, buyerID string) (*model.Purchase, error) {
	if !validID(couponID) {
		return nil, nil
	}
	q := `SELECT ` + purchaseColumns + `
  FROM purchases p
 WHERE p.coupon_id = $1 AND p.buyer_id = $2
   AND p.status IN ('pending', 'accepted', 'completed')
 LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, couponID, buyerID)
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active purchase: %w", err)
	}
	return p, nil
}

func (r *PostgresPurchaseRepo) Accept(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases p
   SET status = 'accepted', updated_at = $2
 WHERE p.id = $1 AND p.status = 'pending'
   AND EXISTS (SELECT 1 FROM coupons c WHERE c.id = p.coupon_id AND c.status = 'approved');
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return false, fmt.Errorf("accept purchase: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresPurchaseRepo) Complete(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases
   SET status = 'completed', redemption_code_revealed = TRUE, purchased_at = $2, updated_at = $2
 WHERE id = $1 AND status = 'accepted';
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return false, fmt.Errorf("complete purchase: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Views join the coupon as it is now; a deleted coupon leaves an empty summary.
const purchaseViewSelect = `SELECT ` + purchaseColumns + `,
       COALESCE(c.title, ''), COALESCE(c.category, ''), COALESCE(c.price, 0), COALESCE(c.images, '{}')
  FROM purchases p
  LEFT JOIN coupons c ON c.id = p.coupon_id`

func (r *PostgresPurchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.PurchaseView, error) {
	q := purchaseViewSelect + ` WHERE p.buyer_id = $1 ORDER BY p.purchased_at DESC`
	return r.listViews(ctx, tx, q, buyerID)
}

func (r *PostgresPurchaseRepo) ListBySeller(ctx context.Context, tx repository.Tx, sellerID string, status model.PurchaseStatus) ([]*model.PurchaseView, error) {
	if status == "" {
		q := purchaseViewSelect + ` WHERE p.seller_id = $1 ORDER BY p.purchased_at DESC`
		return r.listViews(ctx, tx, q, sellerID)
	}
	q := purchaseViewSelect + ` WHERE p.seller_id = $1 AND p.status = $2 ORDER BY p.created_at DESC`
	return r.listViews(ctx, tx, q, sellerID, string(status))
}

func (r *PostgresPurchaseRepo) listViews(ctx context.Context, tx repository.Tx, q string, args ...any) ([]*model.PurchaseView, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	out := make([]*model.PurchaseView, 0)
	for rows.Next() {
		var v model.PurchaseView
		var status string
		dest := append(purchaseDest(&v.Purchase, &status),
			&v.Coupon.Title, &v.Coupon.Category, &v.Coupon.Price, &v.Coupon.Images)
		if err := rows.Scan(dest...); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		v.Status = model.PurchaseStatus(status)
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *PostgresPurchaseRepo) ListCompleted(ctx context.Context, tx repository.Tx) ([]*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases p WHERE p.status = 'completed' ORDER BY p.purchased_at DESC`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list completed purchases: %w", err)
	}
	defer rows.Close()
	out := make([]*model.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresPurchaseRepo) SumPlatformFees(ctx context.Context, tx repository.Tx) (int64, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COALESCE(SUM(platform_fee), 0)::BIGINT FROM purchases WHERE status = 'completed';`)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum platform fees: %w", err)
	}
	return sum, nil
}
