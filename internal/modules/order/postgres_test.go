package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

func TestPostgresListByUserPagesBySeq(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "items", "total_amount", "user_address", "created_at"}).
		AddRow("4f1c1a4e-7f43-4c55-9d1e-7d0f2b9d3c11", []byte(`[{"productid":"p1","qty":2}]`), "20.00",
			[]byte(`{"user_id":"u1","city":"Ndola"}`), now).
		AddRow("0b7e54c3-2f5c-4b9e-8d53-8a7a8e0e1f22", []byte(`[]`), "0", []byte(`{"user_id":"u1"}`), now)
	mock.ExpectQuery(`FROM orders\s+WHERE user_id = \$1\s+ORDER BY seq ASC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("u1", 2, 0).
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	orders, more, err := repo.ListByUser(context.Background(), "u1", pagination.Normalize(1, 0))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !more || len(orders) != 1 {
		t.Fatalf("expected one order and more=true, got %d more=%v", len(orders), more)
	}
	o := orders[0]
	if o.Items[0].ProductID != "p1" || o.Items[0].Qty != 2 || o.UserAddress.City != "Ndola" {
		t.Fatalf("decoded order %+v", o)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("total %s", o.TotalAmount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresInsertAssignsIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), "u9", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	o := &Order{Items: []Item{{ProductID: "p", Qty: 1}}, UserAddress: Address{UserID: "u9"}}
	if err := NewPostgresRepository(db).Create(context.Background(), o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID == "" || o.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresGetOrderNotFound(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	if _, err := NewPostgresRepository(db).GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, apperr.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}
