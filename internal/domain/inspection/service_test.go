package inspection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
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

	admin     *identity.User
	owner     *identity.User
	inspector *identity.User
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t, &identity.User{}, &identity.Profile{}, &Request{}, &Report{})

	ids := identity.NewService(identity.NewRepository(db))
	ids.SetLogger(t.Logf)
	svc := NewService(NewRepository(db), ids, decimal.Zero)
	svc.SetLogger(t.Logf)

	f := &fixture{db: db, identity: ids, svc: svc}
	f.admin = f.principal(t, "admin", identity.RoleAdmin)
	f.owner = f.principal(t, "owner", identity.RoleOwner)
	f.inspector = f.approvedInspector(t, "inspector")
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

func (f *fixture) approvedInspector(t *testing.T, username string) *identity.User {
	t.Helper()
	u := f.principal(t, username, identity.RoleInspector)
	p, err := f.identity.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	_, err = f.identity.Approve(context.Background(), f.admin.ID, p.ID)
	require.NoError(t, err)
	return u
}

func (f *fixture) assignedRequest(t *testing.T) *Request {
	t.Helper()
	ctx := context.Background()
	req, err := f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "House 12, Road 5, Dhanmondi"})
	require.NoError(t, err)
	req, err = f.svc.Assign(ctx, f.admin.ID, req.ID, f.inspector.ID)
	require.NoError(t, err)
	return req
}

func (f *fixture) reportCount(t *testing.T, requestID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&Report{}).Where("request_id = ?", requestID).Count(&n).Error)
	return n
}

func TestCreateRequest(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Type: TypeReinspection, Location: "Plot 7, Uttara"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.True(t, req.Fee.IsZero())
	assert.Equal(t, TypeReinspection, req.Type)

	req, err = f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "Plot 8, Uttara"})
	require.NoError(t, err)
	assert.Equal(t, TypeNewConstruction, req.Type)

	req, err = f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: " Road 9\r\nBlock C\n\tDhanmondi "})
	require.NoError(t, err)
	assert.Equal(t, "Road 9 Block C Dhanmondi", req.Location)

	_, err = f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Type: "Demolition", Location: "x"})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = f.svc.CreateRequest(ctx, f.inspector.ID, CreateInput{Location: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSetFee(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "Gulshan 2"})
	require.NoError(t, err)
	assert.True(t, f.svc.EffectiveFee(req).Equal(DefaultFee))

	_, err = f.svc.SetFee(ctx, f.admin.ID, req.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidFee)

	_, err = f.svc.SetFee(ctx, f.owner.ID, req.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.SetFee(ctx, f.admin.ID, req.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "5000", stored.Fee.String())
	assert.Equal(t, StatusPending, stored.Status)
	assert.True(t, f.svc.EffectiveFee(stored).Equal(decimal.NewFromInt(5000)))

	_, err = f.svc.SetFee(ctx, f.admin.ID, 999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssign(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "Banani"})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, f.owner.ID, req.ID, f.inspector.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidActor)

	_, err = f.svc.Assign(ctx, f.admin.ID, req.ID, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInspector)

	_, err = f.svc.Assign(ctx, f.admin.ID, req.ID, 4242)
	assert.ErrorIs(t, err, domain.ErrInvalidInspector)

	assigned, err := f.svc.Assign(ctx, f.admin.ID, req.ID, f.inspector.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.InspectorID)
	assert.Equal(t, f.inspector.ID, *assigned.InspectorID)

	_, err = f.svc.Assign(ctx, f.admin.ID, req.ID, f.inspector.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	mine, err := f.svc.ListByInspector(ctx, f.inspector.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAssign_IneligibleInspectors(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	unapproved := f.principal(t, "fresh_inspector", identity.RoleInspector)
	banned := f.approvedInspector(t, "banned_inspector")
	_, err := f.identity.SetBanned(ctx, f.admin.ID, banned.ID, true)
	require.NoError(t, err)

	req, err := f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "Mirpur"})
	require.NoError(t, err)

	for _, target := range []*identity.User{unapproved, banned} {
		_, err := f.svc.Assign(ctx, f.admin.ID, req.ID, target.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidInspector, target.Username)
	}

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Nil(t, stored.InspectorID)
}

func TestDecide_Approve(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)

	assert.Zero(t, f.reportCount(t, req.ID))

	rep, err := f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{
		Decision:             DecisionApproved,
		StructuralEvaluation: "Columns and beams within tolerance.",
		ComplianceChecklist:  "Fire exits: ok\nSetback: ok",
		Remarks:              "Fit for occupancy.",
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, rep.Decision)
	assert.False(t, rep.InspectionDate.IsZero())

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	require.NotNil(t, stored.Report)
	assert.Equal(t, rep.ID, stored.Report.ID)
	assert.Equal(t, int64(1), f.reportCount(t, req.ID))
}

func TestDecide_StatusFailureRollsBackReport(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)

	errStatus := errors.New("status update failed")
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_request_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "inspection_requests" {
			_ = tx.AddError(errStatus)
		}
	}))

	_, err := f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{
		Decision:             DecisionApproved,
		StructuralEvaluation: "Sound.",
	})
	assert.ErrorIs(t, err, errStatus)
	assert.Zero(t, f.reportCount(t, req.ID))

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, stored.Status)
	assert.Nil(t, stored.Report)
}

func TestDecide_RejectStoresReasonAsRemarks(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)

	rep, err := f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{
		Decision: DecisionRejected,
		Reason:   "Unauthorised extra floor.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unauthorised extra floor.", rep.Remarks)

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, stored.Status)
}

func TestDecide_NotAssignedInspectorForbidden(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)
	other := f.approvedInspector(t, "other_inspector")

	_, err := f.svc.Decide(ctx, other.ID, req.ID, DecisionInput{Decision: DecisionApproved})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Decide(ctx, f.owner.ID, req.ID, DecisionInput{Decision: DecisionApproved})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, stored.Status)
	assert.Zero(t, f.reportCount(t, req.ID))
}

func TestDecide_NoRedeciding(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)

	_, err := f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{Decision: DecisionApproved})
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{Decision: DecisionRejected, Reason: "changed my mind"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, DecisionApproved, stored.Report.Decision)
	assert.Equal(t, int64(1), f.reportCount(t, req.ID))
}

func TestDecide_PendingRequestIsForbiddenToEveryone(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, f.owner.ID, CreateInput{Location: "Motijheel"})
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{Decision: DecisionApproved})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.reportCount(t, req.ID))

	_, err = f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{Decision: "Maybe"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecide_ConcurrentCallsIssueOneReport(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := DecisionApproved
			if i%2 == 1 {
				d = DecisionRejected
			}
			_, err := f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{Decision: d, Reason: "race"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrInvalidState):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, int64(1), f.reportCount(t, req.ID))

	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Report)
	assert.Equal(t, stored.Report.Decision.Status(), stored.Status)
}

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusAssigned, StatusApproved, StatusRejected, StatusCompleted, StatusPaid}
	for _, from := range all {
		assert.False(t, CanTransition(from, StatusPending), "%s -> Pending", from)
		assert.True(t, CanTransition(from, StatusPaid), "%s -> Paid", from)
		assert.Equal(t, from == StatusPending, CanTransition(from, StatusAssigned), "%s -> Assigned", from)
		assert.Equal(t, from == StatusAssigned, CanTransition(from, StatusApproved), "%s -> Approved", from)
		assert.Equal(t, from == StatusAssigned, CanTransition(from, StatusRejected), "%s -> Rejected", from)
	}
	assert.False(t, CanTransition("Bogus", StatusPaid))
}

func TestGetVisible(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)
	stranger := f.principal(t, "stranger", identity.RoleOwner)

	for _, u := range []*identity.User{f.owner, f.inspector, f.admin} {
		p, err := f.identity.GetProfile(ctx, u.ID)
		require.NoError(t, err)
		_, err = f.svc.GetVisible(ctx, p, req.ID)
		assert.NoError(t, err, u.Username)
	}

	p, err := f.identity.GetProfile(ctx, stranger.ID)
	require.NoError(t, err)
	_, err = f.svc.GetVisible(ctx, p, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPurgeUser(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	req := f.assignedRequest(t)
	_, err := f.svc.Decide(ctx, f.inspector.ID, req.ID, DecisionInput{Decision: DecisionApproved})
	require.NoError(t, err)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.PurgeUser(tx, f.inspector.ID)
	}))
	stored, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.InspectorID)
	assert.Equal(t, StatusApproved, stored.Status)
	require.NotNil(t, stored.Report)
	assert.Nil(t, stored.Report.InspectorID)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.PurgeUser(tx, f.owner.ID)
	}))
	_, err = f.svc.Get(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.reportCount(t, req.ID))
}
