package complaint

import (
	"time"

	"buildinspect/internal/domain/identity"
)

type Complaint struct {
	ID                 int64          `gorm:"primaryKey" json:"id"`
	ReporterID         int64          `gorm:"not null;index" json:"reporter_id"`
	Reporter           *identity.User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	AgainstInspectorID *int64         `gorm:"index" json:"against_inspector_id"`
	AgainstInspector   *identity.User `gorm:"foreignKey:AgainstInspectorID" json:"against_inspector,omitempty"`
	Message            string         `gorm:"type:text;not null" json:"message"`
	AdminResponse      string         `gorm:"type:text" json:"admin_response"`
	Resolved           bool           `gorm:"not null;index" json:"resolved"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (Complaint) TableName() string { return "complaints" }
