package dbtest

// SQLite renditions of the goose migrations. Column names, uniqueness and check
// constraints match; postgres-only types collapse to TEXT.
const (
	UsersTable = `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer', 'seller', 'admin')),
  seller_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX ux_users_email ON users (lower(email));`

	SellersTable = `
CREATE TABLE sellers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  store_name TEXT NOT NULL,
  company_name TEXT,
  email TEXT NOT NULL,
  phone TEXT,
  logo_url TEXT NOT NULL DEFAULT '',
  description TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  rating REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX ux_sellers_user_id ON sellers (user_id);
CREATE UNIQUE INDEX ux_sellers_email ON sellers (lower(email));`

	PartsTable = `
CREATE TABLE parts (
  id TEXT PRIMARY KEY,
  seller_id TEXT,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  brand TEXT NOT NULL,
  price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  images TEXT NOT NULL DEFAULT '[]',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

	CartsTable = `
CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  is_active INTEGER NOT NULL DEFAULT 1,
  items_count INTEGER NOT NULL DEFAULT 0 CHECK (items_count >= 0),
  subtotal_cents INTEGER NOT NULL DEFAULT 0 CHECK (subtotal_cents >= 0),
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX ux_carts_user_active ON carts (user_id) WHERE is_active;`

	CartItemsTable = `
CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  part_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity BETWEEN 1 AND 9999),
  price_at_add_cents INTEGER NOT NULL CHECK (price_at_add_cents >= 0),
  name_snapshot TEXT NOT NULL,
  image_snapshot TEXT NOT NULL DEFAULT '',
  brand_snapshot TEXT NOT NULL DEFAULT '',
  is_selected INTEGER NOT NULL DEFAULT 1,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX ux_cart_items_cart_part ON cart_items (cart_id, part_id);`

	PendingRegistrationsTable = `
CREATE TABLE pending_registrations (
  email TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  code TEXT NOT NULL,
  code_expires_at DATETIME NOT NULL,
  resend_available_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
)

// AllTables is the full schema in dependency order.
var AllTables = []string{
	UsersTable,
	SellersTable,
	PartsTable,
	CartsTable,
	CartItemsTable,
	PendingRegistrationsTable,
}
