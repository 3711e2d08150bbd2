package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, items, total_amount, user_address, created_at`

// InsertPostgres writes o through ex, assigning ID and CreatedAt when unset.
// Callers pass a *sql.Tx to make the insert part of a larger commit.
func InsertPostgres(ctx context.Context, ex Execer, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	addr, err := json.Marshal(o.UserAddress)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, items, total_amount, user_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserAddress.UserID, items, o.TotalAmount, addr, o.CreatedAt)
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("insert order: %w", err))
	}
	return nil
}

func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	return InsertPostgres(ctx, r.db, o)
}

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	var items, addr []byte
	if err := scan(&o.ID, &items, &o.TotalAmount, &addr, &o.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(addr, &o.UserAddress); err != nil {
		return nil, fmt.Errorf("decode address of order %s: %w", o.ID, err)
	}
	return o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, uid)
	o, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*Order, bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY seq ASC
		LIMIT $2 OFFSET $3`,
		userID, p.Fetch(), p.Offset)
	if err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, false, apperr.Unavailable(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	page, more := pagination.Trim(orders, p)
	return page, more, nil
}
