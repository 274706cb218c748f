// Package supabasetest opens in-memory sqlite databases shaped like the
// Supabase tables the backend touches.
package supabasetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE profiles (
  id TEXT PRIMARY KEY,
  first_name TEXT,
  last_name TEXT,
  email TEXT,
  role TEXT
);`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT,
  price NUMERIC
);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number TEXT,
  customer_id TEXT,
  supplier_id TEXT,
  status TEXT,
  payment_status TEXT,
  total_amount NUMERIC,
  amount_paid NUMERIC,
  currency TEXT,
  tracking_number TEXT,
  external_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT,
  product_id TEXT,
  quantity INTEGER,
  unit_price NUMERIC
);`,
	`CREATE TABLE audit_log (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  action TEXT,
  resource_type TEXT,
  resource_id TEXT,
  old_values TEXT,
  new_values TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  title TEXT,
  message TEXT,
  type TEXT,
  data TEXT,
  read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
	`CREATE TABLE financial_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  type TEXT,
  amount NUMERIC,
  currency TEXT,
  description TEXT,
  reference_id TEXT,
  order_id TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE user_commissions (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  order_id TEXT,
  amount NUMERIC,
  status TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE sync_outbox (
  id TEXT PRIMARY KEY,
  resource TEXT NOT NULL,
  event_type TEXT NOT NULL,
  payload TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME,
  next_attempt_at DATETIME,
  delivered_at DATETIME
);`,
}

// Open returns a fresh database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
