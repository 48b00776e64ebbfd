package complaint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/identity"
)

var (
	ErrEmptyMessage = errors.New("complaint message is required")
	ErrNoTarget     = errors.New("complaint names no inspector")
)

// Moderator is the slice of the identity service complaints depend on.
type Moderator interface {
	RoleRequired(ctx context.Context, userID int64, role identity.Role) (*identity.Profile, error)
	Resolve(ctx context.Context, userID int64) (*identity.Profile, error)
	SetBanned(ctx context.Context, actorID, userID int64, banned bool) (*identity.Profile, error)
	ListByRoles(ctx context.Context, roles ...identity.Role) ([]identity.Profile, error)
}

type Service struct {
	db      *gorm.DB
	mod     Moderator
	loggerf func(format string, args ...interface{})
}

func NewService(db *gorm.DB, mod Moderator) *Service {
	return &Service{db: db, mod: mod, loggerf: log.Printf}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

// File records a complaint, optionally naming an inspector.
func (s *Service) File(ctx context.Context, reporterID int64, againstInspectorID *int64, message string) (*Complaint, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrEmptyMessage)
	}

	if againstInspectorID != nil {
		target, err := s.mod.Resolve(ctx, *againstInspectorID)
		if err != nil {
			return nil, fmt.Errorf("inspector %d: %w", *againstInspectorID, err)
		}
		if target.Role != identity.RoleInspector {
			return nil, fmt.Errorf("user %d is not an inspector: %w", *againstInspectorID, domain.ErrInvalidInspector)
		}
	}

	c := &Complaint{ReporterID: reporterID, AgainstInspectorID: againstInspectorID, Message: message}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=complaint filed complaint_id=%d reporter_id=%d", c.ID, reporterID)
	return c, nil
}

// Targets lists the inspectors a complaint can name.
func (s *Service) Targets(ctx context.Context) ([]identity.Profile, error) {
	return s.mod.ListByRoles(ctx, identity.RoleInspector)
}

func (s *Service) ListByReporter(ctx context.Context, reporterID int64) ([]Complaint, error) {
	var out []Complaint
	err := s.db.WithContext(ctx).
		Preload("AgainstInspector").
		Where("reporter_id = ?", reporterID).
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

func (s *Service) List(ctx context.Context, actorID int64) ([]Complaint, error) {
	if _, err := s.mod.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}

	var out []Complaint
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Preload("AgainstInspector").
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

func (s *Service) Resolve(ctx context.Context, actorID, complaintID int64) (*Complaint, error) {
	return s.update(ctx, actorID, complaintID, map[string]any{"resolved": true})
}

// Respond stores the admin response and resolves the complaint.
func (s *Service) Respond(ctx context.Context, actorID, complaintID int64, text string) (*Complaint, error) {
	return s.update(ctx, actorID, complaintID, map[string]any{
		"admin_response": strings.TrimSpace(text),
		"resolved":       true,
	})
}

// Ban bans the inspector the complaint names.
func (s *Service) Ban(ctx context.Context, actorID, complaintID int64) (*identity.Profile, error) {
	return s.setBanned(ctx, actorID, complaintID, true)
}

func (s *Service) Unban(ctx context.Context, actorID, complaintID int64) (*identity.Profile, error) {
	return s.setBanned(ctx, actorID, complaintID, false)
}

func (s *Service) setBanned(ctx context.Context, actorID, complaintID int64, banned bool) (*identity.Profile, error) {
	if _, err := s.mod.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}
	c, err := s.get(ctx, s.db.WithContext(ctx), complaintID)
	if err != nil {
		return nil, err
	}
	if c.AgainstInspectorID == nil {
		return nil, fmt.Errorf("complaint %d: %w: %w", complaintID, domain.ErrInvalidState, ErrNoTarget)
	}
	return s.mod.SetBanned(ctx, actorID, *c.AgainstInspectorID, banned)
}

func (s *Service) update(ctx context.Context, actorID, complaintID int64, fields map[string]any) (*Complaint, error) {
	if _, err := s.mod.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}

	var out *Complaint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.get(ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), complaintID)
		if err != nil {
			return err
		}
		if err := tx.Model(&Complaint{}).Where("id = ?", c.ID).Updates(fields).Error; err != nil {
			return err
		}
		out, err = s.get(ctx, tx, complaintID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=complaint updated complaint_id=%d actor_id=%d resolved=%t", complaintID, actorID, out.Resolved)
	return out, nil
}

// PurgeUser deletes complaints the user filed and clears it as a target.
func (s *Service) PurgeUser(tx *gorm.DB, userID int64) error {
	if err := tx.Where("reporter_id = ?", userID).Delete(&Complaint{}).Error; err != nil {
		return err
	}
	return tx.Model(&Complaint{}).
		Where("against_inspector_id = ?", userID).
		Update("against_inspector_id", nil).Error
}

func (s *Service) get(ctx context.Context, db *gorm.DB, id int64) (*Complaint, error) {
	var c Complaint
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("complaint: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}
