package roommate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/roomiez/domain/user"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.FriendRequest{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewService(NewRepository(db)), db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, mutate func(*domain.User)) *domain.User {
	t.Helper()

	u := &domain.User{
		ID:       uuid.New().String(),
		Email:    username + "@example.com",
		Username: username,
		Public:   true,
	}
	if mutate != nil {
		mutate(u)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func TestService_FriendRequestWorkflow(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", nil)
	bob := createTestUser(t, db, "bob", nil)

	t.Run("send creates a pending request", func(t *testing.T) {
		req, err := svc.SendRequest(ctx, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("SendRequest() error = %v", err)
		}
		if req.Status != domain.RequestPending {
			t.Errorf("req.Status = %v, want pending", req.Status)
		}
	})

	t.Run("duplicate send rejected", func(t *testing.T) {
		if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != ErrRequestExists {
			t.Errorf("SendRequest() error = %v, want ErrRequestExists", err)
		}
		// Reverse direction counts as the same pending pair.
		if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); err != ErrRequestExists {
			t.Errorf("reverse SendRequest() error = %v, want ErrRequestExists", err)
		}
	})

	t.Run("request visible to both parties", func(t *testing.T) {
		incoming, _, err := svc.ListRequests(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListRequests() error = %v", err)
		}
		if len(incoming) != 1 || incoming[0].User.Username != "alice" {
			t.Errorf("expected incoming request from alice, got %+v", incoming)
		}

		_, outgoing, err := svc.ListRequests(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListRequests() error = %v", err)
		}
		if len(outgoing) != 1 || outgoing[0].User.Username != "bob" {
			t.Errorf("expected outgoing request to bob, got %+v", outgoing)
		}
	})

	t.Run("accept establishes symmetric friendship", func(t *testing.T) {
		if err := svc.AcceptRequest(ctx, bob.ID, alice.ID); err != nil {
			t.Fatalf("AcceptRequest() error = %v", err)
		}

		for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
			friends, err := svc.AreFriends(ctx, pair[0], pair[1])
			if err != nil {
				t.Fatalf("AreFriends() error = %v", err)
			}
			if !friends {
				t.Errorf("expected %s and %s to be friends", pair[0], pair[1])
			}
		}
	})

	t.Run("send to existing friend rejected", func(t *testing.T) {
		if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != ErrAlreadyFriends {
			t.Errorf("SendRequest() error = %v, want ErrAlreadyFriends", err)
		}
	})

	t.Run("remove dissolves both directions", func(t *testing.T) {
		if err := svc.RemoveFriend(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("RemoveFriend() error = %v", err)
		}
		friends, err := svc.AreFriends(ctx, bob.ID, alice.ID)
		if err != nil {
			t.Fatalf("AreFriends() error = %v", err)
		}
		if friends {
			t.Error("expected friendship dissolved in both directions")
		}
	})

	t.Run("remove non-friend rejected", func(t *testing.T) {
		if err := svc.RemoveFriend(ctx, alice.ID, bob.ID); err != ErrNotFriends {
			t.Errorf("RemoveFriend() error = %v, want ErrNotFriends", err)
		}
	})
}

func TestService_SendRequestValidation(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", nil)

	t.Run("self request", func(t *testing.T) {
		if _, err := svc.SendRequest(ctx, alice.ID, alice.ID); err != ErrSelfRequest {
			t.Errorf("SendRequest() error = %v, want ErrSelfRequest", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		if _, err := svc.SendRequest(ctx, alice.ID, "no-such-user"); err != ErrUserNotFound {
			t.Errorf("SendRequest() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestService_RejectAndCancel(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", nil)
	bob := createTestUser(t, db, "bob", nil)

	t.Run("reject resolves the request", func(t *testing.T) {
		if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("SendRequest() error = %v", err)
		}
		if err := svc.RejectRequest(ctx, bob.ID, alice.ID); err != nil {
			t.Fatalf("RejectRequest() error = %v", err)
		}

		// The row survives with its terminal status, mirroring accept.
		var req domain.FriendRequest
		if err := db.First(&req, "from_user_id = ? AND to_user_id = ?", alice.ID, bob.ID).Error; err != nil {
			t.Fatalf("failed to load rejected request: %v", err)
		}
		if req.Status != domain.RequestRejected {
			t.Errorf("req.Status = %q, want %q", req.Status, domain.RequestRejected)
		}

		friends, err := svc.AreFriends(ctx, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("AreFriends() error = %v", err)
		}
		if friends {
			t.Error("reject must not create a friendship")
		}

		// No longer pending: a new request is allowed again.
		if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Errorf("SendRequest() after reject error = %v", err)
		}
	})

	t.Run("cancel withdraws own request", func(t *testing.T) {
		if err := svc.CancelRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("CancelRequest() error = %v", err)
		}
		incoming, _, err := svc.ListRequests(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListRequests() error = %v", err)
		}
		if len(incoming) != 0 {
			t.Errorf("expected no incoming requests after cancel, got %d", len(incoming))
		}
	})

	t.Run("cancel without a pending request", func(t *testing.T) {
		if err := svc.CancelRequest(ctx, alice.ID, bob.ID); err != ErrRequestNotFound {
			t.Errorf("CancelRequest() error = %v, want ErrRequestNotFound", err)
		}
	})
}

func TestService_UpdateProfile(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", nil)

	bio := "early riser, tidy"
	college := "State University"
	budget := 900
	location := "Brooklyn"

	profile, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{
		Bio:     &bio,
		College: &college,
		Preferences: &PreferencesUpdate{
			Budget:   &budget,
			Location: &location,
		},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if profile.Bio != bio {
		t.Errorf("profile.Bio = %q, want %q", profile.Bio, bio)
	}
	if profile.College != college {
		t.Errorf("profile.College = %q, want %q", profile.College, college)
	}
	if profile.Preferences.Budget != budget {
		t.Errorf("profile.Preferences.Budget = %d, want %d", profile.Preferences.Budget, budget)
	}
	// Untouched fields survive the partial update.
	if profile.Username != "alice" {
		t.Errorf("profile.Username = %q, want alice", profile.Username)
	}

	t.Run("empty update is a no-op", func(t *testing.T) {
		profile, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if profile.Bio != bio {
			t.Errorf("empty update changed bio to %q", profile.Bio)
		}
	})

	t.Run("invalid username rejected", func(t *testing.T) {
		blank := "   "
		if _, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &blank}); err == nil {
			t.Error("expected error for blank username")
		}
	})
}

func TestService_Search(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	self := createTestUser(t, db, "self", func(u *domain.User) {
		u.College = "State University"
	})
	createTestUser(t, db, "match", func(u *domain.User) {
		u.College = "State University"
		u.Preferences.Budget = 800
		u.Preferences.Location = "Brooklyn"
	})
	createTestUser(t, db, "pricey", func(u *domain.User) {
		u.College = "State University"
		u.Preferences.Budget = 2000
	})
	createTestUser(t, db, "hidden", func(u *domain.User) {
		u.College = "State University"
		u.Public = false
	})
	createTestUser(t, db, "elsewhere", func(u *domain.User) {
		u.College = "Other College"
	})

	t.Run("filters by college", func(t *testing.T) {
		results, err := svc.Search(ctx, SearchFilter{College: "state"}, self.ID)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		for _, r := range results {
			if r.Username == "hidden" {
				t.Error("private profile leaked into search results")
			}
			if r.Username == "self" {
				t.Error("search returned the searching user")
			}
			if r.Username == "elsewhere" {
				t.Error("college filter did not apply")
			}
		}
		if len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("filters by budget ceiling", func(t *testing.T) {
		results, err := svc.Search(ctx, SearchFilter{MaxBudget: 1000}, self.ID)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		for _, r := range results {
			if r.Preferences.Budget > 1000 {
				t.Errorf("result %q exceeds budget ceiling: %d", r.Username, r.Preferences.Budget)
			}
		}
	})

	t.Run("filters by location", func(t *testing.T) {
		results, err := svc.Search(ctx, SearchFilter{Location: "brook"}, self.ID)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 || results[0].Username != "match" {
			t.Errorf("expected only the Brooklyn match, got %+v", results)
		}
	})
}

func TestService_ListFriends(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", nil)
	bob := createTestUser(t, db, "bob", nil)

	friends, err := svc.ListFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListFriends() error = %v", err)
	}
	if len(friends) != 0 {
		t.Errorf("expected no friends initially, got %d", len(friends))
	}

	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if err := svc.AcceptRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("AcceptRequest() error = %v", err)
	}

	friends, err = svc.ListFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListFriends() error = %v", err)
	}
	if len(friends) != 1 || friends[0].Username != "bob" {
		t.Errorf("expected bob in friend list, got %+v", friends)
	}
}
