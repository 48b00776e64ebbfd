package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
	"buildinspect/internal/pkg/dberr"
	"buildinspect/internal/pkg/metrics"
)

var ErrKeyReused = errors.New("idempotency key already used for a different payment")

type Authorizer interface {
	RoleRequired(ctx context.Context, userID int64, role identity.Role) (*identity.Profile, error)
}

// FeeQuoter computes what an owner is asked to pay.
type FeeQuoter interface {
	EffectiveFee(req *inspection.Request) decimal.Decimal
}

type Service struct {
	db      *gorm.DB
	auth    Authorizer
	fees    FeeQuoter
	loggerf func(format string, args ...interface{})
}

func NewService(db *gorm.DB, auth Authorizer, fees FeeQuoter) *Service {
	return &Service{db: db, auth: auth, fees: fees, loggerf: log.Printf}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

// Quote is the payment screen for one request.
type Quote struct {
	Request *inspection.Request `json:"request"`
	Amount  decimal.Decimal     `json:"amount"`
}

func (s *Service) Quote(ctx context.Context, actorID, requestID int64) (*Quote, error) {
	if _, err := s.auth.RoleRequired(ctx, actorID, identity.RoleOwner); err != nil {
		return nil, err
	}

	var req inspection.Request
	if err := s.db.WithContext(ctx).First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inspection request: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if req.OwnerID != actorID {
		return nil, fmt.Errorf("request %d belongs to another owner: %w", requestID, domain.ErrForbidden)
	}
	return &Quote{Request: &req, Amount: s.fees.EffectiveFee(&req)}, nil
}

// Pay records the owner's payment and marks the request Paid. Without an
// idempotency key every call appends a new payment. With one, a repeated key
// returns the original payment and writes nothing.
func (s *Service) Pay(ctx context.Context, actorID, requestID int64, amount decimal.Decimal, idempotencyKey string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount %s: %w", amount, domain.ErrInvalidAmount)
	}
	if _, err := s.auth.RoleRequired(ctx, actorID, identity.RoleOwner); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(idempotencyKey)
	if len(key) > MaxIdempotencyKeyLen {
		return nil, fmt.Errorf("%w: idempotency key longer than %d characters", domain.ErrValidation, MaxIdempotencyKeyLen)
	}

	var (
		payment  *Payment
		replayed bool
		from     inspection.Status
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := inspection.LockForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if req.OwnerID != actorID {
			return fmt.Errorf("request %d belongs to another owner: %w", requestID, domain.ErrForbidden)
		}

		if key != "" {
			existing, err := findByKey(tx, key)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if existing != nil {
				payment, replayed = existing, true
				return checkReplay(existing, actorID, requestID)
			}
		}

		from = req.Status
		payment, _, err = s.RecordPayment(tx, actorID, &req.ID, amount, key)
		if err != nil {
			return err
		}
		return inspection.Transition(tx, req, inspection.StatusPaid, nil)
	})
	if err != nil {
		if key != "" && dberr.IsUniqueViolation(err) {
			existing, lookupErr := findByKey(s.db.WithContext(ctx), key)
			if lookupErr != nil {
				return nil, err
			}
			if err := checkReplay(existing, actorID, requestID); err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, err
	}

	if replayed {
		s.loggerf("level=info msg=payment replayed payment_id=%d request_id=%d idempotency_key=%q", payment.ID, requestID, key)
		return payment, nil
	}

	metrics.PaymentsRecorded.Inc()
	metrics.PaymentAmount.Add(amount.InexactFloat64())
	metrics.RequestTransitions.WithLabelValues(string(from), string(inspection.StatusPaid)).Inc()
	s.loggerf("level=info msg=payment recorded payment_id=%d reference=%s request_id=%d payer_id=%d amount=%s", payment.ID, payment.Reference, requestID, actorID, amount)
	return payment, nil
}

// RecordPayment appends a payment and adds its amount to the admin balance.
// tx must be an open transaction; the caller commits both or neither.
func (s *Service) RecordPayment(tx *gorm.DB, payerID int64, requestID *int64, amount decimal.Decimal, idempotencyKey string) (*Payment, *AdminBalance, error) {
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("amount %s: %w", amount, domain.ErrInvalidAmount)
	}

	p := &Payment{
		Reference: uuid.New(),
		PayerID:   payerID,
		RequestID: requestID,
		Amount:    amount,
	}
	if idempotencyKey != "" {
		p.IdempotencyKey = &idempotencyKey
	}
	if err := tx.Create(p).Error; err != nil {
		return nil, nil, err
	}

	var bal AdminBalance
	if err := lockOrCreateBalance(tx, &bal); err != nil {
		return nil, nil, err
	}
	bal.Balance = bal.Balance.Add(amount)
	if err := tx.Model(&AdminBalance{}).Where("id = ?", bal.ID).Update("balance", bal.Balance).Error; err != nil {
		return nil, nil, err
	}

	return p, &bal, nil
}

// Balance returns the admin balance, creating the row at zero on first use.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	var bal AdminBalance
	err := s.db.WithContext(ctx).First(&bal, adminBalanceID).Error
	if err == nil {
		return bal.Balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	if err := seedBalance(s.db.WithContext(ctx)); err != nil {
		return decimal.Zero, err
	}
	if err := s.db.WithContext(ctx).First(&bal, adminBalanceID).Error; err != nil {
		return decimal.Zero, err
	}
	return bal.Balance, nil
}

func (s *Service) ListByPayer(ctx context.Context, payerID int64) ([]Payment, error) {
	var out []Payment
	err := s.db.WithContext(ctx).
		Where("payer_id = ?", payerID).
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

func (s *Service) ListByRequest(ctx context.Context, requestID int64) ([]Payment, error) {
	var out []Payment
	err := s.db.WithContext(ctx).
		Where("inspection_request_id = ?", requestID).
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

// PurgeUser deletes the user's payments and unlinks payments from the
// requests it owns. The admin balance is left as is.
func (s *Service) PurgeUser(tx *gorm.DB, userID int64) error {
	if err := tx.Where("payer_id = ?", userID).Delete(&Payment{}).Error; err != nil {
		return err
	}
	owned := tx.Model(&inspection.Request{}).Select("id").Where("owner_id = ?", userID)
	return tx.Model(&Payment{}).
		Where("inspection_request_id IN (?)", owned).
		Update("inspection_request_id", nil).Error
}

func lockOrCreateBalance(tx *gorm.DB, bal *AdminBalance) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(bal, adminBalanceID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := seedBalance(tx); err != nil {
		return err
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(bal, adminBalanceID).Error
}

// seedBalance inserts the zero balance row unless it already exists. A lost
// race is not an error, so the surrounding transaction stays usable.
func seedBalance(tx *gorm.DB) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&AdminBalance{ID: adminBalanceID, Balance: decimal.Zero}).Error
}

func findByKey(db *gorm.DB, key string) (*Payment, error) {
	var p Payment
	if err := db.Where("idempotency_key = ?", key).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func checkReplay(p *Payment, payerID, requestID int64) error {
	if p.PayerID != payerID || p.RequestID == nil || *p.RequestID != requestID {
		return fmt.Errorf("%w: %w", domain.ErrInvalidState, ErrKeyReused)
	}
	return nil
}
