package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/roomiez/modules/auth"
	"github.com/example/roomiez/modules/chat"
	"github.com/example/roomiez/modules/delivery"
	"github.com/example/roomiez/modules/roommate"
)

// APIModule is the HTTP API module with WebSocket support. It is the
// only outward-facing surface: REST for auth, profiles, friends and
// chat history, WebSocket for the live relay.
type APIModule struct {
	app         *fiber.App
	authAdapter *auth.AuthAdapter
	roommateMod *roommate.Module
	roommate    *roommate.Service
	chat        chat.Port
	hub         *delivery.Hub
	port        string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule wired to the roommate and chat
// modules. The roommate service is resolved at Start, after the
// roommate module has initialized.
func NewModule(roommateMod *roommate.Module, chatMod chat.Port) *APIModule {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &APIModule{
		roommateMod: roommateMod,
		chat:        chatMod,
		port:        port,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	}
}

// SetHub sets the presence hub (called from main.go).
func (m *APIModule) SetHub(hub *delivery.Hub) {
	m.hub = hub
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth adapter dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("delivery hub dependency not set")
	}
	m.roommate = m.roommateMod.Service()
	if m.roommate == nil {
		return fmt.Errorf("roommate service not available")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(cors.New())
	m.app.Use(loggerMiddleware())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":              m.port,
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// setupRoutes registers all HTTP and WebSocket routes.
func (m *APIModule) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	v1 := m.app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", m.register)
	authGroup.Post("/login", m.login)
	authGroup.Post("/refresh", m.refresh)

	protected := v1.Group("", AuthMiddleware(m.authAdapter))

	users := protected.Group("/users")
	users.Get("/profile", m.getProfile)
	users.Put("/profile", m.updateProfile)
	users.Get("/search", m.searchUsers)

	friends := protected.Group("/friends")
	friends.Get("", m.listFriends)
	friends.Get("/requests", m.listFriendRequests)
	friends.Post("/request", m.sendFriendRequest)
	friends.Post("/accept", m.acceptFriendRequest)
	friends.Post("/reject", m.rejectFriendRequest)
	friends.Post("/cancel", m.cancelFriendRequest)
	friends.Post("/remove", m.removeFriend)

	chatGroup := protected.Group("/chat")
	chatGroup.Get("/unread/:userId", m.getUnreadCount)
	chatGroup.Post("/read/:userId", m.markChatRead)
	chatGroup.Get("/:userId", m.getChatHistory)

	m.app.Use("/ws", m.wsUpgradeMiddleware)
	m.app.Get("/ws", websocket.New(m.handleWebSocket))
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		log.Printf("[api] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
