// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the orders, vouchers, and redemptions tables,
// including the unique constraints the issuance and redemption paths
// depend on.
//
//go:embed migrations/001_schema.sql
var Schema string
