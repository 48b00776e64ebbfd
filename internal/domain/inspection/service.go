package inspection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/dberr"
	"buildinspect/internal/pkg/metrics"
)

// Authorizer resolves the caller's profile and checks its role.
type Authorizer interface {
	RoleRequired(ctx context.Context, userID int64, role identity.Role) (*identity.Profile, error)
}

type Service struct {
	repo       *Repository
	auth       Authorizer
	defaultFee decimal.Decimal
	now        func() time.Time
	loggerf    func(format string, args ...interface{})
}

func NewService(repo *Repository, auth Authorizer, defaultFee decimal.Decimal) *Service {
	if !defaultFee.IsPositive() {
		defaultFee = DefaultFee
	}
	return &Service{
		repo:       repo,
		auth:       auth,
		defaultFee: defaultFee,
		now:        time.Now,
		loggerf:    log.Printf,
	}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

type CreateInput struct {
	Type     RequestType
	Location string
}

// CreateRequest files a new Pending request for the owner.
func (s *Service) CreateRequest(ctx context.Context, ownerID int64, in CreateInput) (*Request, error) {
	if _, err := s.auth.RoleRequired(ctx, ownerID, identity.RoleOwner); err != nil {
		return nil, err
	}

	if in.Type == "" {
		in.Type = TypeNewConstruction
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %w %q", domain.ErrValidation, ErrUnknownType, in.Type)
	}
	// Location is a single export line; inner line breaks collapse to spaces.
	location := strings.Join(strings.Fields(in.Location), " ")
	if location == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrLocationMissing)
	}

	req := &Request{
		OwnerID:  ownerID,
		Type:     in.Type,
		Location: location,
		Fee:      decimal.Zero,
		Status:   StatusPending,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=inspection request created request_id=%d owner_id=%d type=%q", req.ID, ownerID, req.Type)
	return req, nil
}

// SetFee changes the fee without touching the status.
func (s *Service) SetFee(ctx context.Context, actorID, requestID int64, fee decimal.Decimal) (*Request, error) {
	if _, err := s.auth.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("fee %s: %w", fee, domain.ErrInvalidFee)
	}

	var out *Request
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := LockForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if err := tx.Model(&Request{}).Where("id = ?", req.ID).Update("fee", fee).Error; err != nil {
			return err
		}
		req.Fee = fee
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=fee set request_id=%d fee=%s actor_id=%d", requestID, fee, actorID)
	return out, nil
}

// Assign hands a Pending request to an approved, non-banned inspector.
func (s *Service) Assign(ctx context.Context, actorID, requestID, inspectorID int64) (*Request, error) {
	if _, err := s.auth.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, fmt.Errorf("only admins assign inspectors: %w", domain.ErrInvalidActor)
		}
		return nil, err
	}

	var out *Request
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := LockForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return fmt.Errorf("request %d is %s: %w", req.ID, req.Status, domain.ErrInvalidState)
		}

		var target identity.Profile
		if err := tx.Where("user_id = ?", inspectorID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d has no profile: %w", inspectorID, domain.ErrInvalidInspector)
			}
			return err
		}
		if !identity.IsEligibleInspector(&target) {
			return fmt.Errorf("user %d cannot take assignments: %w", inspectorID, domain.ErrInvalidInspector)
		}

		if err := Transition(tx, req, StatusAssigned, map[string]any{"inspector_id": inspectorID}); err != nil {
			return err
		}
		req.InspectorID = &inspectorID
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestTransitions.WithLabelValues(string(StatusPending), string(StatusAssigned)).Inc()
	s.loggerf("level=info msg=inspector assigned request_id=%d inspector_id=%d actor_id=%d", requestID, inspectorID, actorID)
	return out, nil
}

// DecisionInput is what the inspector submits. Reason is stored as the
// remarks of a rejection when Remarks is empty.
type DecisionInput struct {
	Decision             Decision
	StructuralEvaluation string
	ComplianceChecklist  string
	Remarks              string
	Reason               string
	InspectionDate       time.Time
}

// Decide issues the report and moves the request to the matching terminal
// status in one transaction.
func (s *Service) Decide(ctx context.Context, actorID, requestID int64, in DecisionInput) (*Report, error) {
	if !in.Decision.Valid() {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrUnknownDecision)
	}
	if _, err := s.auth.RoleRequired(ctx, actorID, identity.RoleInspector); err != nil {
		return nil, err
	}

	rep := &Report{
		InspectorID:          &actorID,
		InspectionDate:       in.InspectionDate,
		StructuralEvaluation: in.StructuralEvaluation,
		ComplianceChecklist:  in.ComplianceChecklist,
		Decision:             in.Decision,
		Remarks:              in.Remarks,
	}
	if rep.InspectionDate.IsZero() {
		rep.InspectionDate = s.now()
	}
	if in.Decision == DecisionRejected && rep.Remarks == "" {
		rep.Remarks = in.Reason
	}

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := LockForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if !req.AssignedTo(actorID) {
			return fmt.Errorf("request %d is not assigned to user %d: %w", req.ID, actorID, domain.ErrForbidden)
		}
		if req.Status != StatusAssigned {
			return fmt.Errorf("request %d is %s: %w", req.ID, req.Status, domain.ErrInvalidState)
		}

		rep.RequestID = req.ID
		if err := tx.Create(rep).Error; err != nil {
			if dberr.IsUniqueViolation(err) {
				return fmt.Errorf("request %d already has a report: %w", req.ID, domain.ErrInvalidState)
			}
			return err
		}
		return Transition(tx, req, in.Decision.Status(), nil)
	})
	if err != nil {
		return nil, err
	}

	metrics.ReportsIssued.WithLabelValues(string(rep.Decision)).Inc()
	metrics.RequestTransitions.WithLabelValues(string(StatusAssigned), string(rep.Decision.Status())).Inc()
	s.loggerf("level=info msg=report issued request_id=%d report_id=%d decision=%s inspector_id=%d", requestID, rep.ID, rep.Decision, actorID)
	return rep, nil
}

func (s *Service) Get(ctx context.Context, requestID int64) (*Request, error) {
	return s.repo.GetByID(ctx, requestID)
}

// GetVisible returns the request if actor is its owner, its inspector or an
// admin.
func (s *Service) GetVisible(ctx context.Context, actor *identity.Profile, requestID int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, req) {
		return nil, fmt.Errorf("request %d: %w", requestID, domain.ErrForbidden)
	}
	return req, nil
}

// CanView is the read rule shared by requests and their reports.
func CanView(actor *identity.Profile, req *Request) bool {
	if actor == nil || req == nil {
		return false
	}
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleOwner:
		return req.OwnerID == actor.UserID
	case identity.RoleInspector:
		return req.AssignedTo(actor.UserID) || (req.Report != nil && req.Report.InspectorID != nil && *req.Report.InspectorID == actor.UserID)
	}
	return false
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]Request, error) {
	return s.repo.List(ctx, RequestFilter{OwnerID: ownerID})
}

func (s *Service) ListByInspector(ctx context.Context, inspectorID int64) ([]Request, error) {
	return s.repo.List(ctx, RequestFilter{InspectorID: inspectorID})
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.repo.List(ctx, RequestFilter{Status: status})
}

func (s *Service) ListAll(ctx context.Context) ([]Request, error) {
	return s.repo.List(ctx, RequestFilter{})
}

// EffectiveFee is the amount an owner is asked to pay.
func (s *Service) EffectiveFee(req *Request) decimal.Decimal {
	if req.Fee.IsPositive() {
		return req.Fee
	}
	return s.defaultFee
}

// Counts returns how many requests userID owns and how many are assigned to
// it.
func (s *Service) Counts(ctx context.Context, userID int64) (owned, assigned int64, err error) {
	if owned, err = s.repo.CountByOwner(ctx, userID); err != nil {
		return 0, 0, err
	}
	if assigned, err = s.repo.CountByInspector(ctx, userID); err != nil {
		return 0, 0, err
	}
	return owned, assigned, nil
}

func (s *Service) PurgeUser(tx *gorm.DB, userID int64) error {
	return s.repo.PurgeUser(tx, userID)
}
