package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/postgres"
	"github.com/sevadesk/civicbook/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				booking_documents,
				bookings,
				slot_ledgers,
				daily_ledgers,
				token_counters,
				services,
				departments
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	if migration := os.Getenv("MIGRATION_FILE"); migration != "" {
		schema, err := os.ReadFile(migration)
		if err != nil {
			log.Fatalf("Failed to read migration %s: %v", migration, err)
		}
		if _, err := db.ExecContext(ctx, string(schema)); err != nil {
			log.Fatalf("Failed to apply migration %s: %v", migration, err)
		}
		log.Printf("Applied migration %s", migration)
	}

	weekdays := func(open, close string) []entities.WorkingHours {
		hours := make([]entities.WorkingHours, 0, 5)
		for day := time.Monday; day <= time.Friday; day++ {
			hours = append(hours, entities.WorkingHours{Day: day, OpenTime: open, CloseTime: close})
		}
		return hours
	}

	departments := []entities.Department{
		{
			ID:                "rto-central",
			Name:              "Regional Transport Office (Central)",
			BookingWindowDays: 7,
			WorkingHours:      weekdays("09:00", "17:00"),
			TokenConfig: entities.TokenManagementConfig{
				SlotIntervalMinutes: 30,
				MaxDailyTokens:      200,
				QueueType:           entities.QueueTypeHybrid,
				MaxTokensPerSlot:    15,
				AllowPriorityTokens: true,
				PriorityPercentage:  20,
				AutoStopOnOverload:  true,
			},
		},
		{
			ID:                "passport-seva",
			Name:              "Passport Seva Kendra",
			BookingWindowDays: 14,
			WorkingHours:      weekdays("09:30", "16:30"),
			TokenConfig: entities.TokenManagementConfig{
				SlotIntervalMinutes: 60,
				MaxDailyTokens:      120,
				QueueType:           entities.QueueTypeOnline,
				MaxTokensPerSlot:    20,
				AllowPriorityTokens: true,
				PriorityPercentage:  25,
				AutoStopOnOverload:  true,
			},
		},
		{
			ID:                "municipal-records",
			Name:              "Municipal Records Office",
			BookingWindowDays: 5,
			WorkingHours:      weekdays("10:00", "15:00"),
			TokenConfig: entities.TokenManagementConfig{
				SlotIntervalMinutes: 30,
				MaxDailyTokens:      0,
				QueueType:           entities.QueueTypeOffline,
				MaxTokensPerSlot:    10,
				AllowPriorityTokens: false,
				PriorityPercentage:  0,
				AutoStopOnOverload:  false,
			},
		},
	}

	for _, dept := range departments {
		hours, err := json.Marshal(dept.WorkingHours)
		if err != nil {
			log.Fatalf("Failed to marshal working hours for %s: %v", dept.Name, err)
		}
		tokenCfg, err := json.Marshal(dept.TokenConfig)
		if err != nil {
			log.Fatalf("Failed to marshal token config for %s: %v", dept.Name, err)
		}

		_, err = db.ExecContext(
			ctx,
			`INSERT INTO departments (id, name, booking_window_days, working_hours, token_config, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 ON CONFLICT (id) DO NOTHING`,
			dept.ID, dept.Name, dept.BookingWindowDays, hours, tokenCfg,
		)
		if err != nil {
			log.Printf("Failed to create department %s: %v", dept.Name, err)
		}
	}

	identityAndAddress := []entities.RequiredDocument{
		{Name: "identity_proof", Mandatory: true},
		{Name: "address_proof", Mandatory: true},
	}

	services := []entities.Service{
		{
			ID:                "license-renewal",
			DepartmentID:      "rto-central",
			Name:              "Driving License Renewal",
			Description:       "Renewal of an expiring or expired driving license",
			RequiresDocuments: true,
			RequiredDocuments: append(identityAndAddress,
				entities.RequiredDocument{Name: "old_license", Mandatory: true},
			),
		},
		{
			ID:                "vehicle-transfer",
			DepartmentID:      "rto-central",
			Name:              "Vehicle Ownership Transfer",
			Description:       "Transfer of vehicle registration to a new owner",
			RequiresDocuments: true,
			RequiredDocuments: append(identityAndAddress,
				entities.RequiredDocument{Name: "sale_deed", Mandatory: true},
				entities.RequiredDocument{Name: "insurance_certificate", Mandatory: false},
			),
		},
		{
			ID:                "passport-fresh",
			DepartmentID:      "passport-seva",
			Name:              "Fresh Passport Application",
			Description:       "First time passport issuance",
			RequiresDocuments: true,
			RequiredDocuments: append(identityAndAddress,
				entities.RequiredDocument{Name: "birth_certificate", Mandatory: true},
			),
			TokenConfig: &entities.TokenManagementConfig{
				SlotIntervalMinutes: 45,
				MaxTokensPerSlot:    12,
				AllowPriorityTokens: true,
				PriorityPercentage:  25,
			},
		},
		{
			ID:                "birth-certificate-copy",
			DepartmentID:      "municipal-records",
			Name:              "Birth Certificate Copy",
			Description:       "Certified copy of a registered birth certificate",
			RequiresDocuments: false,
		},
	}

	for _, svc := range services {
		var requiredDocs, tokenCfg []byte
		if len(svc.RequiredDocuments) > 0 {
			requiredDocs, err = json.Marshal(svc.RequiredDocuments)
			if err != nil {
				log.Fatalf("Failed to marshal required documents for %s: %v", svc.Name, err)
			}
		}
		if svc.TokenConfig != nil {
			tokenCfg, err = json.Marshal(svc.TokenConfig)
			if err != nil {
				log.Fatalf("Failed to marshal token config for %s: %v", svc.Name, err)
			}
		}

		_, err = db.ExecContext(
			ctx,
			`INSERT INTO services (id, department_id, name, description, requires_documents, required_documents, token_config, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			 ON CONFLICT (id) DO NOTHING`,
			svc.ID, svc.DepartmentID, svc.Name, svc.Description, svc.RequiresDocuments, requiredDocs, tokenCfg,
		)
		if err != nil {
			log.Printf("Failed to create service %s: %v", svc.Name, err)
		}
	}

	log.Println("Seeding completed successfully")
}
