package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"buildinspect/internal/domain/inspection"
)

// DefaultFee is charged for requests without an explicit fee.
var DefaultFee = inspection.DefaultFee

// MaxIdempotencyKeyLen matches the idempotency_key column size.
const MaxIdempotencyKeyLen = 64

// adminBalanceID is the primary key of the singleton balance row.
const adminBalanceID int64 = 1

// Payment is an append-only ledger row.
type Payment struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	Reference      uuid.UUID       `gorm:"type:varchar(36);uniqueIndex;not null" json:"reference"`
	PayerID        int64           `gorm:"not null;index" json:"payer_id"`
	RequestID      *int64          `gorm:"column:inspection_request_id;index" json:"request_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	IdempotencyKey *string         `gorm:"size:64;uniqueIndex" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// AdminBalance accumulates every payment. It never decreases.
type AdminBalance struct {
	ID        int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (AdminBalance) TableName() string { return "admin_balances" }
