package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	domain "github.com/example/roomiez/domain/user"
	"github.com/example/roomiez/modules/auth"
	"github.com/example/roomiez/modules/roommate"
)

// claimsFrom extracts the authenticated identity stored by AuthMiddleware.
func claimsFrom(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(UserContextKey).(*domain.Claims)
	return claims
}

// register handles POST /api/v1/auth/register.
func (m *APIModule) register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.authAdapter.Register(c.UserContext(), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "registration_failed",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// login handles POST /api/v1/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.authAdapter.Login(c.UserContext(), req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "login_failed",
			Message: "Invalid email or password",
		})
	}
	return c.JSON(resp)
}

// refresh handles POST /api/v1/auth/refresh.
func (m *APIModule) refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.authAdapter.Refresh(c.UserContext(), req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "refresh_failed",
			Message: "Invalid or expired refresh token",
		})
	}
	return c.JSON(resp)
}

// getProfile handles GET /api/v1/users/profile.
func (m *APIModule) getProfile(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	profile, err := m.roommate.GetProfile(c.UserContext(), claims.UserID)
	if err != nil {
		return notFoundOr500(c, err, roommate.ErrUserNotFound, "User not found")
	}
	return c.JSON(profile)
}

// updateProfile handles PUT /api/v1/users/profile.
func (m *APIModule) updateProfile(c *fiber.Ctx) error {
	claims := claimsFrom(c)

	var upd roommate.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := m.roommate.UpdateProfile(c.UserContext(), claims.UserID, upd)
	if err != nil {
		if errors.Is(err, roommate.ErrUserNotFound) {
			return notFoundOr500(c, err, roommate.ErrUserNotFound, "User not found")
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	}
	return c.JSON(profile)
}

// searchUsers handles GET /api/v1/users/search.
func (m *APIModule) searchUsers(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	filter := roommate.SearchFilter{
		College:   c.Query("college"),
		Location:  c.Query("location"),
		MaxBudget: c.QueryInt("budget", 0),
	}

	results, err := m.roommate.Search(c.UserContext(), filter, claims.UserID)
	if err != nil {
		return serverError(c, "Failed to search users")
	}
	return c.JSON(fiber.Map{
		"users": results,
		"total": len(results),
	})
}

// sendFriendRequest handles POST /api/v1/friends/request.
func (m *APIModule) sendFriendRequest(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	var req FriendActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return badRequest(c, "user_id is required")
	}

	if _, err := m.roommate.SendRequest(c.UserContext(), claims.UserID, req.UserID); err != nil {
		return friendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Friend request sent",
	})
}

// acceptFriendRequest handles POST /api/v1/friends/accept.
func (m *APIModule) acceptFriendRequest(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	var req FriendActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return badRequest(c, "user_id is required")
	}

	if err := m.roommate.AcceptRequest(c.UserContext(), claims.UserID, req.UserID); err != nil {
		return friendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request accepted"})
}

// rejectFriendRequest handles POST /api/v1/friends/reject.
func (m *APIModule) rejectFriendRequest(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	var req FriendActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return badRequest(c, "user_id is required")
	}

	if err := m.roommate.RejectRequest(c.UserContext(), claims.UserID, req.UserID); err != nil {
		return friendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request rejected"})
}

// cancelFriendRequest handles POST /api/v1/friends/cancel.
func (m *APIModule) cancelFriendRequest(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	var req FriendActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return badRequest(c, "user_id is required")
	}

	if err := m.roommate.CancelRequest(c.UserContext(), claims.UserID, req.UserID); err != nil {
		return friendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request cancelled"})
}

// removeFriend handles POST /api/v1/friends/remove.
func (m *APIModule) removeFriend(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	var req FriendActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return badRequest(c, "user_id is required")
	}

	if err := m.roommate.RemoveFriend(c.UserContext(), claims.UserID, req.UserID); err != nil {
		return friendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend removed"})
}

// listFriends handles GET /api/v1/friends.
func (m *APIModule) listFriends(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	friends, err := m.roommate.ListFriends(c.UserContext(), claims.UserID)
	if err != nil {
		return serverError(c, "Failed to list friends")
	}
	return c.JSON(fiber.Map{
		"friends": friends,
		"total":   len(friends),
	})
}

// listFriendRequests handles GET /api/v1/friends/requests.
func (m *APIModule) listFriendRequests(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	incoming, outgoing, err := m.roommate.ListRequests(c.UserContext(), claims.UserID)
	if err != nil {
		return serverError(c, "Failed to list friend requests")
	}
	return c.JSON(FriendRequestsResponse{
		Incoming: incoming,
		Outgoing: outgoing,
	})
}

// getChatHistory handles GET /api/v1/chat/:userId. Friendship is
// enforced here, before any history leaves the store.
func (m *APIModule) getChatHistory(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	otherID := c.Params("userId")
	if otherID == "" {
		return badRequest(c, "userId is required")
	}

	friends, err := m.roommate.AreFriends(c.UserContext(), claims.UserID, otherID)
	if err != nil {
		return serverError(c, "Failed to verify friendship")
	}
	if !friends {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "You must be friends to chat",
		})
	}

	messages, err := m.chat.Conversation(c.UserContext(), claims.UserID, otherID)
	if err != nil {
		return serverError(c, "Failed to load conversation")
	}
	return c.JSON(HistoryResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// markChatRead handles POST /api/v1/chat/read/:userId.
func (m *APIModule) markChatRead(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	otherID := c.Params("userId")
	if otherID == "" {
		return badRequest(c, "userId is required")
	}

	if err := m.chat.MarkRead(c.UserContext(), claims.UserID, otherID); err != nil {
		return serverError(c, "Failed to mark messages read")
	}
	return c.JSON(fiber.Map{"message": "Messages marked as read"})
}

// getUnreadCount handles GET /api/v1/chat/unread/:userId.
func (m *APIModule) getUnreadCount(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	otherID := c.Params("userId")
	if otherID == "" {
		return badRequest(c, "userId is required")
	}

	count, err := m.chat.UnreadCount(c.UserContext(), claims.UserID, otherID)
	if err != nil {
		return serverError(c, "Failed to count unread messages")
	}
	return c.JSON(UnreadResponse{
		UserID: otherID,
		Unread: count,
	})
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// Error helpers

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: msg,
	})
}

func serverError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "server_error",
		Message: msg,
	})
}

func notFoundOr500(c *fiber.Ctx, err, sentinel error, msg string) error {
	if errors.Is(err, sentinel) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: msg,
		})
	}
	return serverError(c, msg)
}

// friendError maps friend-workflow sentinel errors to HTTP statuses.
func friendError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, roommate.ErrUserNotFound),
		errors.Is(err, roommate.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, roommate.ErrSelfRequest),
		errors.Is(err, roommate.ErrAlreadyFriends),
		errors.Is(err, roommate.ErrRequestExists),
		errors.Is(err, roommate.ErrNotFriends):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	default:
		return serverError(c, "Friend operation failed")
	}
}
