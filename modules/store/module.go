package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	chatdomain "github.com/example/roomiez/domain/chat"
	userdomain "github.com/example/roomiez/domain/user"
)

// Module owns the shared SQLite database. Every persistent module
// receives the *gorm.DB from here; there is a single schema for the
// whole application.
type Module struct {
	db     *gorm.DB
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the store module. The database path comes from
// ROOMIEZ_DB_PATH, defaulting to a local file.
func NewModule() *Module {
	dbPath := os.Getenv("ROOMIEZ_DB_PATH")
	if dbPath == "" {
		dbPath = "roomiez.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Start opens the database and migrates the schema.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(
		&userdomain.User{},
		&userdomain.FriendRequest{},
		&chatdomain.Message{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("[store] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the underlying database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[store] Module stopped")
	return nil
}

// Health returns the health status of the database connection.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// DB returns the shared database handle. Valid after Start.
func (m *Module) DB() *gorm.DB {
	return m.db
}
