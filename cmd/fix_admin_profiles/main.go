package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"buildinspect/internal/config"
	"buildinspect/internal/database"
	"buildinspect/internal/domain/identity"
)

// fix_admin_profiles forces every staff or superuser account onto an
// approved Admin profile.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	svc := identity.NewService(identity.NewRepository(db))
	changed, err := svc.ResyncStaff(context.Background())
	if err != nil {
		log.Fatalf("resync failed: %v", err)
	}
	log.Printf("admin profile resync completed: changed=%d", changed)
}
