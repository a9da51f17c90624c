package middleware

import (
	"medibook/database"
	"medibook/models"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionMiddleware authenticates the (client id, token) pair from the
// X-Client-Id and Authorization headers against a non-deleted client row,
// loads the owning user and stores both in the request context. Revoked
// sessions and soft-deleted users fail here, before any handler runs.
func SessionMiddleware(c *fiber.Ctx) error {
	clientIdHeader := c.Get("X-Client-Id")
	if clientIdHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing X-Client-Id header", nil)
	}
	clientId, err := strconv.ParseUint(clientIdHeader, 10, 64)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid X-Client-Id header", nil)
	}

	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}
	token := strings.TrimSpace(authHeader[len("Bearer "):])
	if token == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing token", nil)
	}

	var client models.Client
	if err := database.Database.Db.
		Where("id = ? AND token = ? AND is_deleted = ?", uint(clientId), token, false).
		First(&client).Error; err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or revoked session", nil)
	}

	var user models.User
	if err := database.Database.Db.
		Where("id = ? AND is_deleted = ?", client.UserID, false).
		First(&user).Error; err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or revoked session", nil)
	}

	c.Locals("userId", user.ID)
	c.Locals("clientId", client.ID)
	c.Locals("client", &client)

	return c.Next()
}
