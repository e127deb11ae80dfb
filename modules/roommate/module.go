package roommate

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Module provides profile, search, and friendship services.
type Module struct {
	dbFn    func() *gorm.DB
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new roommate module. The database handle is
// resolved lazily because the store module opens it during Start.
func NewModule(db func() *gorm.DB) *Module {
	return &Module{dbFn: db}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "roommate"
}

// Start initializes the roommate module.
func (m *Module) Start(_ context.Context) error {
	db := m.dbFn()
	if db == nil {
		return fmt.Errorf("store database not available")
	}
	m.service = NewService(NewRepository(db))
	log.Println("[roommate] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[roommate] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.service != nil,
		Message: "operational",
	}
}

// Service returns the roommate service. Valid after Start.
func (m *Module) Service() *Service {
	return m.service
}
