package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*PostgresCouponRepo)(nil)

type PostgresCouponRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCouponRepo(pool *pgxpool.Pool) *PostgresCouponRepo {
	return &PostgresCouponRepo{pool: pool}
}

const couponColumns = `id, title, description, category, redemption_code, expiry_date, price,
       seller_id, quantity, status, images, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	var status string
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.RedemptionCode, &c.ExpiryDate, &c.Price,
		&c.SellerID, &c.Quantity, &status, &c.Images, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = model.CouponStatus(status)
	if c.Images == nil {
		c.Images = []string{}
	}
	return &c, nil
}

func (r *PostgresCouponRepo) Create(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	const q = `
INSERT INTO coupons (
  id, title, description, category, redemption_code, expiry_date, price,
  seller_id, quantity, status, images, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);
`
	images := c.Images
	if images == nil {
		images = []string{}
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Title, c.Description, c.Category, c.RedemptionCode, c.ExpiryDate, c.Price,
		c.SellerID, c.Quantity, string(c.Status), images, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *PostgresCouponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	if !validID(id) {
		return nil, domain.ErrCouponNotFound
	}
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1` + forUpdate(tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return c, nil
}

func (r *PostgresCouponRepo) List(ctx context.Context, tx repository.Tx, f repository.CouponFilter) ([]*model.Coupon, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Category != "" {
		where = append(where, "category ILIKE '%' || "+arg(f.Category)+" || '%'")
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}
	if f.SellerID != "" {
		where = append(where, "seller_id = "+arg(f.SellerID))
	}
	if f.ExpiresAfter != nil {
		where = append(where, "expiry_date > "+arg(*f.ExpiresAfter))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + couponColumns + " FROM coupons")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(f.Limit))
	}

	rows, err := queryRows(ctx, r.pool, tx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()
	out := make([]*model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCouponRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CouponStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM coupons GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("count coupons: %w", err)
	}
	defer rows.Close()
	out := make(map[model.CouponStatus]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.CouponStatus(st)] = n
	}
	return out, rows.Err()
}

func (r *PostgresCouponRepo) Update(ctx context.Context, tx repository.Tx, c *model.Coupon, expected model.CouponStatus) (bool, error) {
	const q = `
UPDATE coupons
   SET title = $2, description = $3, category = $4, expiry_date = $5, price = $6,
       quantity = $7, status = $8, images = $9, updated_at = $10
 WHERE id = $1 AND status = $11;
`
	images := c.Images
	if images == nil {
		images = []string{}
	}
	tag, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Title, c.Description, c.Category, c.ExpiryDate, c.Price,
		c.Quantity, string(c.Status), images, c.UpdatedAt, string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update coupon: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresCouponRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM coupons WHERE id = $1 AND status <> 'sold';`, id)
	if err != nil {
		return false, fmt.Errorf("delete coupon: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSold is a single conditional UPDATE; of any number of concurrent callers at most one
// sees a row affected.
func (r *PostgresCouponRepo) MarkSold(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	const q = `UPDATE coupons SET status = 'sold', updated_at = $2 WHERE id = $1 AND status = 'approved';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return false, fmt.Errorf("mark coupon sold: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
