package database

import (
	"gorm.io/gorm"

	"buildinspect/internal/domain/complaint"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
	"buildinspect/internal/domain/ledger"
	"buildinspect/internal/domain/message"
)

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&identity.User{},
		&identity.Profile{},
		&inspection.Request{},
		&inspection.Report{},
		&ledger.Payment{},
		&ledger.AdminBalance{},
		&message.Message{},
		&complaint.Complaint{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
