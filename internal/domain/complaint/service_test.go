package complaint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/testdb"
)

type fixture struct {
	db       *gorm.DB
	identity *identity.Service
	svc      *Service

	admin, owner, inspector *identity.User
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t, &identity.User{}, &identity.Profile{}, &Complaint{})
	ids := identity.NewService(identity.NewRepository(db))
	ids.SetLogger(t.Logf)
	svc := NewService(db, ids)
	svc.SetLogger(t.Logf)

	f := &fixture{db: db, identity: ids, svc: svc}
	f.admin = f.principal(t, "admin", identity.RoleAdmin)
	f.owner = f.principal(t, "owner", identity.RoleOwner)
	f.inspector = f.principal(t, "inspector", identity.RoleInspector)
	return f
}

func (f *fixture) principal(t *testing.T, username string, role identity.Role) *identity.User {
	t.Helper()
	u := &identity.User{Username: username, PasswordHash: "x", IsStaff: role == identity.RoleAdmin}
	require.NoError(t, f.db.Create(u).Error)
	_, err := f.identity.SyncProfile(context.Background(), u, role)
	require.NoError(t, err)
	return u
}

func ptr(v int64) *int64 { return &v }

func TestFile(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	c, err := f.svc.File(ctx, f.owner.ID, ptr(f.inspector.ID), "  Never showed up.  ")
	require.NoError(t, err)
	assert.Equal(t, "Never showed up.", c.Message)
	assert.False(t, c.Resolved)

	general, err := f.svc.File(ctx, f.owner.ID, nil, "Portal is slow")
	require.NoError(t, err)
	assert.Nil(t, general.AgainstInspectorID)

	_, err = f.svc.File(ctx, f.owner.ID, ptr(f.owner.ID), "not an inspector")
	assert.ErrorIs(t, err, domain.ErrInvalidInspector)

	_, err = f.svc.File(ctx, f.owner.ID, ptr(9999), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.File(ctx, f.owner.ID, nil, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	mine, err := f.svc.ListByReporter(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestList_AdminOnly(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.svc.File(ctx, f.owner.ID, nil, "first")
	require.NoError(t, err)
	_, err = f.svc.File(ctx, f.owner.ID, nil, "second")
	require.NoError(t, err)

	_, err = f.svc.List(ctx, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := f.svc.List(ctx, f.admin.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Message)
	require.NotNil(t, list[0].Reporter)
	assert.Equal(t, "owner", list[0].Reporter.Username)
}

func TestResolveAndRespond(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	c, err := f.svc.File(ctx, f.owner.ID, nil, "late report")
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, f.inspector.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.Respond(ctx, f.admin.ID, c.ID, "We have spoken to the inspector.")
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, "We have spoken to the inspector.", got.AdminResponse)

	other, err := f.svc.File(ctx, f.owner.ID, nil, "another")
	require.NoError(t, err)
	got, err = f.svc.Resolve(ctx, f.admin.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Empty(t, got.AdminResponse)

	_, err = f.svc.Resolve(ctx, f.admin.ID, 777)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBanUnban(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	c, err := f.svc.File(ctx, f.owner.ID, ptr(f.inspector.ID), "rude")
	require.NoError(t, err)

	p, err := f.svc.Ban(ctx, f.admin.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, p.Banned)
	assert.Equal(t, f.inspector.ID, p.UserID)

	p, err = f.svc.Unban(ctx, f.admin.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, p.Banned)

	general, err := f.svc.File(ctx, f.owner.ID, nil, "no target")
	require.NoError(t, err)
	_, err = f.svc.Ban(ctx, f.admin.ID, general.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.Ban(ctx, f.owner.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPurgeUser(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	against, err := f.svc.File(ctx, f.owner.ID, ptr(f.inspector.ID), "about the inspector")
	require.NoError(t, err)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.PurgeUser(tx, f.inspector.ID)
	}))

	var kept Complaint
	require.NoError(t, f.db.First(&kept, against.ID).Error)
	assert.Nil(t, kept.AgainstInspectorID)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.PurgeUser(tx, f.owner.ID)
	}))
	var n int64
	require.NoError(t, f.db.Model(&Complaint{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestTargets(t *testing.T) {
	f := setupFixture(t)

	ps, err := f.svc.Targets(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, f.inspector.ID, ps[0].UserID)
}
