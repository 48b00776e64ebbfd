package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"buildinspect/internal/domain"
)

// Repository is the gorm-backed store for users and profiles.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&u).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).Order("username asc").Find(&users).Error
	return users, err
}

func (r *Repository) ListStaffUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("is_staff = ? OR is_superuser = ?", true, true).
		Order("id asc").
		Find(&users).Error
	return users, err
}

func (r *Repository) GetProfileByID(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).Preload("User").First(&p, id).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (r *Repository) GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (r *Repository) CreateProfile(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Omit("User").Create(p).Error
}

func (r *Repository) SaveProfile(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Omit("User").Save(p).Error
}

// ProfileFilter narrows ListProfiles; nil fields are not applied.
type ProfileFilter struct {
	Role     *Role
	Approved *bool
	Banned   *bool
}

func (r *Repository) ListProfiles(ctx context.Context, f ProfileFilter) ([]Profile, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.Approved != nil {
		q = q.Where("approved = ?", *f.Approved)
	}
	if f.Banned != nil {
		q = q.Where("banned = ?", *f.Banned)
	}

	var out []Profile
	err := q.Order("id asc").Find(&out).Error
	return out, err
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}
