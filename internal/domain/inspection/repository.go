package inspection

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildinspect/internal/domain"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) Create(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Inspector").
		Preload("Report").
		First(&req, id).Error
	if err != nil {
		return nil, notFound(err, "inspection request")
	}
	return &req, nil
}

// RequestFilter narrows List; zero fields are not applied.
type RequestFilter struct {
	OwnerID     int64
	InspectorID int64
	Status      Status
}

func (r *Repository) List(ctx context.Context, f RequestFilter) ([]Request, error) {
	q := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Inspector").
		Preload("Report")
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.InspectorID != 0 {
		q = q.Where("inspector_id = ?", f.InspectorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []Request
	err := q.Order("created_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *Repository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Request{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (r *Repository) CountByInspector(ctx context.Context, inspectorID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Request{}).Where("inspector_id = ?", inspectorID).Count(&n).Error
	return n, err
}

func (r *Repository) GetReportByID(ctx context.Context, id int64) (*Report, error) {
	var rep Report
	if err := r.db.WithContext(ctx).First(&rep, id).Error; err != nil {
		return nil, notFound(err, "inspection report")
	}
	return &rep, nil
}

func (r *Repository) GetReportByRequestID(ctx context.Context, requestID int64) (*Report, error) {
	var rep Report
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&rep).Error; err != nil {
		return nil, notFound(err, "inspection report")
	}
	return &rep, nil
}

// LockForUpdate loads the request row under SELECT ... FOR UPDATE. tx must be
// an open transaction.
func LockForUpdate(tx *gorm.DB, id int64) (*Request, error) {
	var req Request
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
	if err != nil {
		return nil, notFound(err, "inspection request")
	}
	return &req, nil
}

// Transition moves req to status to, guarded by the status it was read
// with. A concurrent writer that got there first yields ErrInvalidState.
func Transition(tx *gorm.DB, req *Request, to Status, extra map[string]any) error {
	if !CanTransition(req.Status, to) {
		return fmt.Errorf("cannot move request %d from %s to %s: %w", req.ID, req.Status, to, domain.ErrInvalidState)
	}

	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&Request{}).
		Where("id = ? AND status = ?", req.ID, req.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("request %d changed concurrently: %w", req.ID, domain.ErrInvalidState)
	}
	req.Status = to
	return nil
}

// PurgeUser removes requests and reports owned by userID and clears its
// inspector links. Payments referencing the owned requests must be handled
// before this runs.
func (r *Repository) PurgeUser(tx *gorm.DB, userID int64) error {
	owned := tx.Model(&Request{}).Select("id").Where("owner_id = ?", userID)
	if err := tx.Where("request_id IN (?)", owned).Delete(&Report{}).Error; err != nil {
		return err
	}
	if err := tx.Where("owner_id = ?", userID).Delete(&Request{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&Request{}).Where("inspector_id = ?", userID).Update("inspector_id", nil).Error; err != nil {
		return err
	}
	return tx.Model(&Report{}).Where("inspector_id = ?", userID).Update("inspector_id", nil).Error
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}
