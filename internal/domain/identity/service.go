package identity

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"buildinspect/internal/domain"
	"buildinspect/internal/pkg/dberr"
)

// Purger removes the rows a principal owns in one domain. Purgers run
// inside the rejection transaction in registration order.
type Purger interface {
	PurgeUser(tx *gorm.DB, userID int64) error
}

type Service struct {
	repo    *Repository
	purgers []Purger
	loggerf func(format string, args ...interface{})
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo, loggerf: log.Printf}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

// RegisterPurger appends p to the cascade run by Reject. Rows that reference
// other rows must be purged before the rows they reference.
func (s *Service) RegisterPurger(p Purger) {
	s.purgers = append(s.purgers, p)
}

// SyncProfile returns the profile of u, creating it with desired on first
// sight. Staff and superuser principals are forced to Admin on every call.
func (s *Service) SyncProfile(ctx context.Context, u *User, desired Role) (*Profile, error) {
	p, err := s.repo.GetProfileByUserID(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		p, err = s.createProfile(ctx, u, desired)
		if err != nil {
			return nil, err
		}
	}
	if p.User == nil {
		p.User = u
	}

	if u.IsPrivileged() && p.Role != RoleAdmin {
		s.loggerf("level=info msg=profile promoted to admin user_id=%d previous_role=%s", u.ID, p.Role)
		p.Role = RoleAdmin
		p.Approved = true
		if err := s.repo.SaveProfile(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) createProfile(ctx context.Context, u *User, desired Role) (*Profile, error) {
	role := desired
	if !role.Valid() {
		role = RoleOwner
	}
	if u.IsPrivileged() {
		role = RoleAdmin
	}

	p := &Profile{UserID: u.ID, Role: role, Approved: role.StartsApproved()}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		if dberr.IsUniqueViolation(err) {
			return s.repo.GetProfileByUserID(ctx, u.ID)
		}
		return nil, err
	}
	return p, nil
}

// Resolve loads the principal and its synced profile.
func (s *Service) Resolve(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.SyncProfile(ctx, u, RoleOwner)
}

// RoleRequired resolves the caller and checks its role.
func (s *Service) RoleRequired(ctx context.Context, userID int64, role Role) (*Profile, error) {
	p, err := s.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown principal: %w", domain.ErrForbidden)
		}
		return nil, err
	}
	if p.Role != role {
		return nil, fmt.Errorf("%s role required: %w", role, domain.ErrForbidden)
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	return s.Resolve(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// ContactInput carries the editable profile fields.
type ContactInput struct {
	NID      string
	Phone    string
	Location string
}

func (s *Service) UpdateContact(ctx context.Context, userID int64, in ContactInput) (*Profile, error) {
	p, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.NID, p.Phone, p.Location = in.NID, in.Phone, in.Location
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Approve(ctx context.Context, actorID, profileID int64) (*Profile, error) {
	if _, err := s.RoleRequired(ctx, actorID, RoleAdmin); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p.Role != RoleInspector {
		return nil, fmt.Errorf("profile %d is not an inspector: %w", profileID, domain.ErrInvalidState)
	}
	if p.Approved {
		return p, nil
	}

	p.Approved = true
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=inspector approved profile_id=%d user_id=%d actor_id=%d", p.ID, p.UserID, actorID)
	return p, nil
}

// Reject deletes a pending inspector together with everything it owns.
func (s *Service) Reject(ctx context.Context, actorID, profileID int64) error {
	if _, err := s.RoleRequired(ctx, actorID, RoleAdmin); err != nil {
		return err
	}

	p, err := s.repo.GetProfileByID(ctx, profileID)
	if err != nil {
		return err
	}
	if p.Role != RoleInspector || p.Approved {
		return fmt.Errorf("profile %d is not a pending inspector: %w", profileID, domain.ErrInvalidState)
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pg := range s.purgers {
			if err := pg.PurgeUser(tx, p.UserID); err != nil {
				return err
			}
		}
		if err := tx.Delete(&Profile{}, p.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, p.UserID).Error
	})
	if err != nil {
		return err
	}

	s.loggerf("level=info msg=inspector rejected profile_id=%d user_id=%d actor_id=%d", p.ID, p.UserID, actorID)
	return nil
}

// SetBanned toggles the banned flag of the user's profile.
func (s *Service) SetBanned(ctx context.Context, actorID, userID int64, banned bool) (*Profile, error) {
	if _, err := s.RoleRequired(ctx, actorID, RoleAdmin); err != nil {
		return nil, err
	}
	return s.setBanned(ctx, userID, banned)
}

func (s *Service) setBanned(ctx context.Context, userID int64, banned bool) (*Profile, error) {
	p, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Banned == banned {
		return p, nil
	}

	p.Banned = banned
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=ban flag changed user_id=%d banned=%t", userID, banned)
	return p, nil
}

func (s *Service) ListPendingInspectors(ctx context.Context) ([]Profile, error) {
	role, approved := RoleInspector, false
	return s.repo.ListProfiles(ctx, ProfileFilter{Role: &role, Approved: &approved})
}

func (s *Service) ListAssignableInspectors(ctx context.Context) ([]Profile, error) {
	role, approved, banned := RoleInspector, true, false
	return s.repo.ListProfiles(ctx, ProfileFilter{Role: &role, Approved: &approved, Banned: &banned})
}

func (s *Service) ListByRoles(ctx context.Context, roles ...Role) ([]Profile, error) {
	var out []Profile
	for i := range roles {
		ps, err := s.repo.ListProfiles(ctx, ProfileFilter{Role: &roles[i]})
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	return out, nil
}

// ResyncStaff forces every staff or superuser principal to Admin and
// returns how many profiles changed.
func (s *Service) ResyncStaff(ctx context.Context) (int, error) {
	users, err := s.repo.ListStaffUsers(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range users {
		before, err := s.repo.GetProfileByUserID(ctx, users[i].ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return changed, err
		}
		if _, err := s.SyncProfile(ctx, &users[i], RoleAdmin); err != nil {
			return changed, err
		}
		if before == nil || before.Role != RoleAdmin {
			changed++
		}
	}
	return changed, nil
}
