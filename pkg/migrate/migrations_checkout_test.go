package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCartMigrationEnforcesLineUniqueness(t *testing.T) {
	content := readMigration(t, "*_create_carts_table.sql")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_id ON carts (user_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_line ON cart_items (cart_id, product_id, variant_key)",
		"CHECK (quantity > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders_table.sql")
	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number ON orders (order_number)",
		"CHECK (exchange_rate > 0)",
		"CHECK (total >= 0)",
		"'cash_on_delivery'",
		"'refunded'",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponMigrationRequiresWindow(t *testing.T) {
	content := readMigration(t, "*_create_coupons_table.sql")
	if !strings.Contains(content, "CHECK (valid_until > valid_from)") {
		t.Fatalf("coupon migration missing validity window check")
	}
	if !strings.Contains(content, "ux_coupons_code") {
		t.Fatalf("coupon migration missing unique code index")
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "orders.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_order_notes.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}
