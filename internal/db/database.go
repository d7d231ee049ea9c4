package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swap-backend/internal/config"
	"swap-backend/internal/models"
)

var DB *gorm.DB

// InitDB connects to Postgres and migrates the schema. The database is an
// archive and audit surface; quote reads never touch it.
func InitDB() {
	var err error

	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		log.Fatalf("Database DSN is required")
	}

	dsn := config.AppConfig.Database.DSN
	log.Printf("🔌 [DB] Connecting to database...")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	log.Println("✅ [DB] Database connected successfully")

	if err := DB.AutoMigrate(
		&models.QuoteArchive{},
		&models.SwapAttemptLog{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("✅ [DB] Database schema migrated successfully")
}
