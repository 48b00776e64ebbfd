package dashboard

import (
	"context"

	"github.com/shopspring/decimal"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
)

type Directory interface {
	RoleRequired(ctx context.Context, userID int64, role identity.Role) (*identity.Profile, error)
	Resolve(ctx context.Context, userID int64) (*identity.Profile, error)
	ListUsers(ctx context.Context) ([]identity.User, error)
	ListPendingInspectors(ctx context.Context) ([]identity.Profile, error)
}

type Requests interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]inspection.Request, error)
	ListByInspector(ctx context.Context, inspectorID int64) ([]inspection.Request, error)
	ListAll(ctx context.Context) ([]inspection.Request, error)
	Counts(ctx context.Context, userID int64) (owned, assigned int64, err error)
}

type Ledger interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

type Inbox interface {
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

type OwnerView struct {
	Profile  identity.ProfileView `json:"profile"`
	Requests []inspection.Request `json:"requests"`
	Unread   int64                `json:"unread_messages"`
}

type InspectorView struct {
	Profile  identity.ProfileView `json:"profile"`
	Requests []inspection.Request `json:"requests"`
	Unread   int64                `json:"unread_messages"`
}

// AdminView is the single admin landing page.
type AdminView struct {
	Requests          []inspection.Request   `json:"requests"`
	Balance           decimal.Decimal        `json:"balance"`
	PendingInspectors []identity.ProfileView `json:"pending_inspectors"`
	Unread            int64                  `json:"unread_messages"`
}

type UserRow struct {
	Profile  identity.ProfileView `json:"profile"`
	Owned    int64                `json:"owned_requests"`
	Assigned int64                `json:"assigned_requests"`
}

type Service struct {
	users    Directory
	requests Requests
	ledger   Ledger
	inbox    Inbox
}

func NewService(users Directory, requests Requests, ledger Ledger, inbox Inbox) *Service {
	return &Service{users: users, requests: requests, ledger: ledger, inbox: inbox}
}

func (s *Service) Owner(ctx context.Context, userID int64) (*OwnerView, error) {
	p, err := s.users.RoleRequired(ctx, userID, identity.RoleOwner)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.inbox.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &OwnerView{Profile: identity.NewProfileView(p), Requests: reqs, Unread: unread}, nil
}

func (s *Service) Inspector(ctx context.Context, userID int64) (*InspectorView, error) {
	p, err := s.users.RoleRequired(ctx, userID, identity.RoleInspector)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListByInspector(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.inbox.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &InspectorView{Profile: identity.NewProfileView(p), Requests: reqs, Unread: unread}, nil
}

func (s *Service) Admin(ctx context.Context, actorID int64) (*AdminView, error) {
	if _, err := s.users.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}

	reqs, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.users.ListPendingInspectors(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.inbox.UnreadCount(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return &AdminView{
		Requests:          reqs,
		Balance:           bal,
		PendingInspectors: identity.NewProfileViews(pending),
		Unread:            unread,
	}, nil
}

// Users lists every principal with its request counts.
func (s *Service) Users(ctx context.Context, actorID int64) ([]UserRow, error) {
	if _, err := s.users.RoleRequired(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]UserRow, 0, len(users))
	for i := range users {
		p, err := s.users.Resolve(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		owned, assigned, err := s.requests.Counts(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, UserRow{Profile: identity.NewProfileView(p), Owned: owned, Assigned: assigned})
	}
	return rows, nil
}
