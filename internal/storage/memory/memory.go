// Package memory provides in-memory implementations of the domain store
// interfaces. It backs the dev/test storage mode and lets the core run with
// no persistence technology. The redemption claim is serialized by a single
// mutex, which is the in-memory equivalent of the SQL compare-and-swap plus
// unique-index discipline used by the postgres store.
package memory

import (
	"sync"

	"github.com/ximepaparella/giftvoucher/internal/domain/order"
	"github.com/ximepaparella/giftvoucher/internal/domain/redemption"
	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

// DB is the shared state behind the per-entity stores. All tables live
// under one mutex so cross-entity operations (the redemption claim) are
// indivisible.
type DB struct {
	mu sync.Mutex

	orders          map[string]order.Order
	vouchers        map[string]voucher.Voucher
	vouchersByCode  map[string]string // code -> voucher id
	vouchersByOrder map[string]string // order id -> voucher id
	redemptions     map[string]redemption.Redemption
	usageByVoucher  map[string]string // voucher id -> redemption id
}

// NewDB creates an empty DB.
func NewDB() *DB {
	return &DB{
		orders:          make(map[string]order.Order),
		vouchers:        make(map[string]voucher.Voucher),
		vouchersByCode:  make(map[string]string),
		vouchersByOrder: make(map[string]string),
		redemptions:     make(map[string]redemption.Redemption),
		usageByVoucher:  make(map[string]string),
	}
}

// Orders returns the order store view of the DB.
func (db *DB) Orders() *OrderStore { return &OrderStore{db: db} }

// Vouchers returns the voucher store view of the DB.
func (db *DB) Vouchers() *VoucherStore { return &VoucherStore{db: db} }

// Redemptions returns the redemption store view of the DB.
func (db *DB) Redemptions() *RedemptionStore { return &RedemptionStore{db: db} }
