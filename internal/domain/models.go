package domain

import (
	"strings"
	"time"
)

type MovementKind string

const (
	MovementTopup      MovementKind = "topup"
	MovementPurchase   MovementKind = "purchase"
	MovementAdjustment MovementKind = "adjustment"
)

type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitDelivered UnitStatus = "delivered"
)

type OrderStatus string

const (
	// OrderFulfilled is the only status ever persisted: a failed purchase leaves no order behind.
	OrderFulfilled OrderStatus = "fulfilled"
	OrderFailed    OrderStatus = "failed"
)

type Account struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
}

type CatalogEntry struct {
	SKU       string    `db:"sku"`
	Name      string    `db:"name"`
	Price     int64     `db:"price"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

type InventoryUnit struct {
	ID          int64      `db:"id"`
	SKU         string     `db:"sku"`
	Code        string     `db:"code"`
	Status      UnitStatus `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	DeliveredAt *time.Time `db:"delivered_at"`
	BuyerID     *int64     `db:"buyer_account_id"`
	OrderID     *string    `db:"order_id"`
}

type Order struct {
	ID             string      `db:"id"`
	AccountID      int64       `db:"account_id"`
	SKU            string      `db:"sku"`
	Price          int64       `db:"price"`
	Status         OrderStatus `db:"status"`
	IdempotencyKey string      `db:"idempotency_key"`
	CreatedAt      time.Time   `db:"created_at"`
	DeliveredAt    time.Time   `db:"delivered_at"`
}

type BalanceMovement struct {
	ID            int64        `db:"id"`
	AccountID     int64        `db:"account_id"`
	Kind          MovementKind `db:"kind"`
	Amount        int64        `db:"amount"`
	BalanceBefore int64        `db:"balance_before"`
	BalanceAfter  int64        `db:"balance_after"`
	Reference     string       `db:"reference"`
	CreatedAt     time.Time    `db:"created_at"`
}

// Stock is the number of still-available units of a SKU.
type Stock struct {
	SKU       string `db:"sku"`
	Available int64  `db:"available"`
}

type PurchaseRequest struct {
	AccountID      int64
	SKU            string
	IdempotencyKey string
}

// Receipt is handed to the buyer exactly once: Code is not stored anywhere it could be re-read by a replay.
type Receipt struct {
	Order        Order
	ProductName  string
	Code         string
	BalanceAfter int64
}

type LoadResult struct {
	SKU              string
	Loaded           int64
	SkippedBlank     int
	SkippedDuplicate int
	CreatedProduct   bool
}

type AlertKind string

const (
	AlertIntegrity AlertKind = "integrity"
	AlertLedger    AlertKind = "ledger_mismatch"
)

type Alert struct {
	Kind      AlertKind `json:"kind"`
	AccountID int64     `json:"account_id,omitempty"`
	SKU       string    `json:"sku,omitempty"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func (k MovementKind) Valid() bool {
	switch k {
	case MovementTopup, MovementPurchase, MovementAdjustment:
		return true
	}
	return false
}
