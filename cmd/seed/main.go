package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"buildinspect/internal/app"
	"buildinspect/internal/config"
	"buildinspect/internal/database"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
	"buildinspect/internal/domain/message"
)

const demoPassword = "password123"

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (children first)
	log.Println("Cleaning old data...")
	for _, table := range []string{
		"complaints", "messages", "payments", "admin_balances",
		"inspection_reports", "inspection_requests", "profiles", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	a := app.New(db, cfg)
	creds := identity.NewCredentials(identity.NewRepository(db), a.Identity)

	// ================== USERS ==================
	log.Println("Creating users...")
	signup := func(username string, role identity.Role, location string) *identity.Profile {
		_, p, err := creds.Signup(ctx, identity.SignupInput{
			Username: username,
			Email:    username + "@buildinspect.local",
			Password: demoPassword,
			Role:     role,
			Location: location,
		})
		if err != nil {
			log.Fatalf("signup %s: %v", username, err)
		}
		return p
	}

	admin := signup("admin", identity.RoleAdmin, "Head office")
	owners := []*identity.Profile{
		signup("rahim", identity.RoleOwner, "Dhanmondi"),
		signup("karim", identity.RoleOwner, "Uttara"),
	}
	inspectors := []*identity.Profile{
		signup("nadia", identity.RoleInspector, "Gulshan"),
		signup("tanvir", identity.RoleInspector, "Mirpur"),
	}
	pending := signup("sadia", identity.RoleInspector, "Banani")

	for _, p := range inspectors {
		if _, err := a.Identity.Approve(ctx, admin.UserID, p.ID); err != nil {
			log.Fatalf("approve %d: %v", p.UserID, err)
		}
	}

	// ================== REQUESTS ==================
	log.Println("Creating inspection requests...")
	create := func(owner *identity.Profile, typ inspection.RequestType, location string) *inspection.Request {
		req, err := a.Inspection.CreateRequest(ctx, owner.UserID, inspection.CreateInput{Type: typ, Location: location})
		if err != nil {
			log.Fatalf("create request: %v", err)
		}
		return req
	}

	approved := create(owners[0], inspection.TypeNewConstruction, "House 12, Road 5, Dhanmondi")
	rejected := create(owners[0], inspection.TypeReinspection, "Plot 7, Sector 3, Uttara")
	assigned := create(owners[1], inspection.TypeNewConstruction, "House 40, Road 11, Uttara")
	create(owners[1], inspection.TypeNewConstruction, "Block C, Mirpur 10")

	if _, err := a.Inspection.SetFee(ctx, admin.UserID, approved.ID, decimal.NewFromInt(5000)); err != nil {
		log.Fatalf("set fee: %v", err)
	}

	for req, insp := range map[int64]*identity.Profile{
		approved.ID: inspectors[0],
		rejected.ID: inspectors[1],
		assigned.ID: inspectors[0],
	} {
		if _, err := a.Inspection.Assign(ctx, admin.UserID, req, insp.UserID); err != nil {
			log.Fatalf("assign %d: %v", req, err)
		}
	}

	if _, err := a.Inspection.Decide(ctx, inspectors[0].UserID, approved.ID, inspection.DecisionInput{
		Decision:             inspection.DecisionApproved,
		StructuralEvaluation: "Foundation, columns and slabs within tolerance.",
		ComplianceChecklist:  "Fire exits, electrical wiring, drainage: all compliant.",
		Remarks:              "Fit for occupancy.",
	}); err != nil {
		log.Fatalf("approve request: %v", err)
	}
	if _, err := a.Inspection.Decide(ctx, inspectors[1].UserID, rejected.ID, inspection.DecisionInput{
		Decision:             inspection.DecisionRejected,
		StructuralEvaluation: "Cracks in the load-bearing wall on level 2.",
		Reason:               "Structural repairs required before reinspection.",
	}); err != nil {
		log.Fatalf("reject request: %v", err)
	}

	// ================== PAYMENTS ==================
	log.Println("Recording payments...")
	if _, err := a.Ledger.Pay(ctx, owners[0].UserID, approved.ID, decimal.NewFromInt(5000), "seed-payment-1"); err != nil {
		log.Fatalf("pay: %v", err)
	}

	// ================== MESSAGES / COMPLAINTS ==================
	log.Println("Creating messages and complaints...")
	if _, err := a.Messages.Send(ctx, owners[1].UserID, message.SendInput{
		RecipientID: inspectors[0].UserID,
		Subject:     "Site access",
		Body:        "The gate code is 4512. Call before you arrive.",
	}); err != nil {
		log.Fatalf("send message: %v", err)
	}
	target := inspectors[1].UserID
	if _, err := a.Complaints.File(ctx, owners[0].UserID, &target, "Inspector arrived two hours late."); err != nil {
		log.Fatalf("file complaint: %v", err)
	}

	bal, err := a.Ledger.Balance(ctx)
	if err != nil {
		log.Fatalf("balance: %v", err)
	}
	log.Printf("Seed completed: admin=%d owners=%d inspectors=%d pending_inspector=%d balance=%s password=%q",
		admin.UserID, len(owners), len(inspectors), pending.UserID, bal.String(), demoPassword)
}
