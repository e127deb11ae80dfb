package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/roomiez/modules/api"
	"github.com/example/roomiez/modules/auth"
	"github.com/example/roomiez/modules/chat"
	"github.com/example/roomiez/modules/delivery"
	"github.com/example/roomiez/modules/roommate"
	"github.com/example/roomiez/modules/store"
)

const shutdownTimeout = 30 * time.Second

// friendshipChecker defers to the roommate service, which only exists
// after the roommate module has started. The chat module never calls
// AreFriends before its own Start, so the deferred lookup is safe.
type friendshipChecker struct {
	mod *roommate.Module
}

func (f friendshipChecker) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	return f.mod.Service().AreFriends(ctx, userA, userB)
}

func main() {
	log.Println("=== Roomiez - Roommate Matching with Private Chat ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	storeModule := store.NewModule()
	authModule := auth.NewModule(storeModule.DB)
	roommateModule := roommate.NewModule(storeModule.DB)
	chatModule := chat.NewModule(storeModule.DB, friendshipChecker{mod: roommateModule})
	deliveryModule := delivery.NewModule()
	apiModule := api.NewModule(roommateModule, chatModule)

	// Inject the presence hub into the API module
	// (done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(deliveryModule.GetHub())

	// Register modules with the framework.
	// Order: the store first, then domain modules, then the outward surface
	// - store: shared SQLite database and schema migration
	// - auth: accounts, password hashing, JWT issuing (ServiceProviderModule)
	// - roommate: profiles, search, friend workflow
	// - chat: message relay, read state, history (EventEmitterModule)
	// - delivery: presence hub + event consumer for live pushes
	// - api: Fiber HTTP/WebSocket server (depends on auth)
	app.Register(storeModule)
	app.Register(authModule)
	app.Register(roommateModule)
	app.Register(chatModule)
	app.Register(deliveryModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Storage: SQLite via GORM (shared store module)")
	log.Println("  - Live delivery: MessageSent events -> delivery module -> WebSocket clients")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                       - Health check")
	log.Println("  POST   /api/v1/auth/register         - Create account")
	log.Println("  POST   /api/v1/auth/login            - Login, returns token pair")
	log.Println("  POST   /api/v1/auth/refresh          - Refresh token pair")
	log.Println("  GET    /api/v1/users/profile         - Own profile")
	log.Println("  PUT    /api/v1/users/profile         - Update profile/preferences")
	log.Println("  GET    /api/v1/users/search          - Search roommates (college, location, budget)")
	log.Println("  GET    /api/v1/friends               - List friends")
	log.Println("  GET    /api/v1/friends/requests      - Pending requests, both directions")
	log.Println("  POST   /api/v1/friends/request       - Send friend request")
	log.Println("  POST   /api/v1/friends/accept        - Accept request")
	log.Println("  POST   /api/v1/friends/reject        - Reject request")
	log.Println("  POST   /api/v1/friends/cancel        - Cancel own request")
	log.Println("  POST   /api/v1/friends/remove        - Remove friend")
	log.Println("  GET    /api/v1/chat/:userId          - Conversation history (friends only)")
	log.Println("  POST   /api/v1/chat/read/:userId     - Mark conversation read")
	log.Println("  GET    /api/v1/chat/unread/:userId   - Unread count")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:3000/ws?token=<access token>")
	log.Println("  Send: {\"type\": \"private message\", \"receiver\": \"<user id>\", \"content\": \"...\"}")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
