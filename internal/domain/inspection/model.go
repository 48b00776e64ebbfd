package inspection

import (
	"time"

	"github.com/shopspring/decimal"

	"buildinspect/internal/domain/identity"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusAssigned  Status = "Assigned"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCompleted Status = "Completed"
	StatusPaid      Status = "Paid"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusApproved, StatusRejected, StatusCompleted, StatusPaid:
		return true
	}
	return false
}

// CanTransition is the lifecycle table. Payment may land from any state;
// nothing ever leads back to Pending.
func CanTransition(from, to Status) bool {
	if !from.Valid() {
		return false
	}
	switch to {
	case StatusAssigned:
		return from == StatusPending
	case StatusApproved, StatusRejected:
		return from == StatusAssigned
	case StatusPaid:
		return true
	}
	return false
}

type RequestType string

const (
	TypeNewConstruction RequestType = "New Construction"
	TypeReinspection    RequestType = "Reinspection"
)

func (t RequestType) Valid() bool {
	switch t {
	case TypeNewConstruction, TypeReinspection:
		return true
	}
	return false
}

type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected:
		return true
	}
	return false
}

// Status is the terminal request status a decision produces.
func (d Decision) Status() Status {
	switch d {
	case DecisionApproved:
		return StatusApproved
	case DecisionRejected:
		return StatusRejected
	}
	return ""
}

// DefaultFee applies when a request carries no explicit fee.
var DefaultFee = decimal.NewFromInt(500)

// Request is one inspection request lifecycle instance.
type Request struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	OwnerID     int64           `gorm:"not null;index" json:"owner_id"`
	Owner       *identity.User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	InspectorID *int64          `gorm:"index" json:"inspector_id"`
	Inspector   *identity.User  `gorm:"foreignKey:InspectorID" json:"inspector,omitempty"`
	Type        RequestType     `gorm:"column:req_type;type:varchar(30);not null" json:"type"`
	Location    string          `gorm:"column:building_location;size:255;not null" json:"location"`
	Fee         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"fee"`
	Status      Status          `gorm:"type:varchar(20);not null;index" json:"status"`
	Report      *Report         `gorm:"foreignKey:RequestID" json:"report,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Request) TableName() string { return "inspection_requests" }

// AssignedTo reports whether userID is the request's inspector.
func (r *Request) AssignedTo(userID int64) bool {
	return r.InspectorID != nil && *r.InspectorID == userID
}

// Report is the immutable outcome of an inspector's decision.
type Report struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	RequestID            int64     `gorm:"not null;uniqueIndex:idx_inspection_reports_request" json:"request_id"`
	InspectorID          *int64    `gorm:"index" json:"inspector_id"`
	InspectionDate       time.Time `gorm:"not null" json:"inspection_date"`
	StructuralEvaluation string    `gorm:"type:text" json:"structural_evaluation"`
	ComplianceChecklist  string    `gorm:"type:text" json:"compliance_checklist"`
	Decision             Decision  `gorm:"type:varchar(20);not null" json:"decision"`
	Remarks              string    `gorm:"type:text" json:"remarks"`
	CreatedAt            time.Time `json:"created_at"`
}

func (Report) TableName() string { return "inspection_reports" }
