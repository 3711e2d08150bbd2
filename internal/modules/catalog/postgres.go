package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id, name, price, sizes, version, created_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	sizes, err := json.Marshal(nonNilSizes(p.Sizes))
	if err != nil {
		return fmt.Errorf("encode sizes: %w", err)
	}
	id := uuid.New()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, price, sizes, version)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING created_at`,
		id, p.Name, p.Price, sizes).Scan(&p.CreatedAt)
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("insert product: %w", err))
	}
	p.ID = id.String()
	p.Version = 0
	return nil
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var sizes []byte
	if err := scan(&p.ID, &p.Name, &p.Price, &sizes, &p.Version, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, fmt.Errorf("decode sizes of product %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, uid)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return p, nil
}

func (r *postgresRepo) GetMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	out := make(map[string]*Product, len(valid))
	if len(valid) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, pq.Array(valid))
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, apperr.Unavailable(err)
		}
		out[p.ID] = p
	}
	return out, apperr.Unavailable(rows.Err())
}

func (r *postgresRepo) List(ctx context.Context, f Filter, p pagination.Params) ([]*Product, bool, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.Name != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d ESCAPE '\'`, n)
		args = append(args, "%"+escapeLike(f.Name)+"%")
		n++
	}
	if f.Size != "" {
		query += fmt.Sprintf(` AND sizes @> $%d::jsonb`, n)
		label, _ := json.Marshal([]map[string]string{{"size": f.Size}})
		args = append(args, string(label))
		n++
	}
	query += fmt.Sprintf(` ORDER BY seq ASC LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, p.Fetch(), p.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		prod, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, false, apperr.Unavailable(err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	page, more := pagination.Trim(products, p)
	return page, more, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func nonNilSizes(s []Size) []Size {
	if s == nil {
		return []Size{}
	}
	return s
}
