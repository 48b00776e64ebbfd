package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"buildinspect/internal/domain"
	"buildinspect/internal/pkg/dberr"
)

// SignupInput is what the signup form collects.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     Role
	NID      string
	Phone    string
	Location string
}

// Credentials is the thin identity-provider shell: it stores bcrypt
// hashes and hands authenticated principals to the profile model.
type Credentials struct {
	repo    *Repository
	service *Service
}

func NewCredentials(repo *Repository, service *Service) *Credentials {
	return &Credentials{repo: repo, service: service}
}

// Signup creates the principal and its profile. Admin signups become staff
// and superuser, which SyncProfile then resolves to the Admin role.
func (c *Credentials) Signup(ctx context.Context, in SignupInput) (*User, *Profile, error) {
	if !in.Role.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsStaff:      in.Role == RoleAdmin,
		IsSuperuser:  in.Role == RoleAdmin,
	}
	if err := c.repo.CreateUser(ctx, u); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, nil, ErrUsernameTaken
		}
		return nil, nil, err
	}

	p, err := c.service.SyncProfile(ctx, u, in.Role)
	if err != nil {
		return nil, nil, err
	}

	if in.NID != "" || in.Phone != "" || in.Location != "" {
		p.NID, p.Phone, p.Location = in.NID, in.Phone, in.Location
		if err := c.repo.SaveProfile(ctx, p); err != nil {
			return nil, nil, err
		}
	}
	return u, p, nil
}

// Login verifies the password and returns the principal with its profile
// resynced.
func (c *Credentials) Login(ctx context.Context, username, password string) (*User, *Profile, error) {
	u, err := c.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	p, err := c.service.SyncProfile(ctx, u, RoleOwner)
	if err != nil {
		return nil, nil, err
	}
	return u, p, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
