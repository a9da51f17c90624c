package middleware

import (
	"medibook/database"
	"medibook/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Channels accepted by RequireVerified
const (
	ChannelMobile = "mobile"
	ChannelEmail  = "email"
)

// RequireVerified returns a middleware that rejects the request unless the
// authenticated user has verified every one of the given channels.
func RequireVerified(channels ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		var user models.User
		err := database.Database.Db.
			Where("id = ? AND is_deleted = ?", userID, false).
			First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking verification!", nil)
		}

		for _, channel := range channels {
			switch channel {
			case ChannelMobile:
				if !user.IsMobileVerified {
					return JsonResponse(c, fiber.StatusForbidden, false, "Mobile number not verified!", nil)
				}
			case ChannelEmail:
				if !user.IsEmailVerified {
					return JsonResponse(c, fiber.StatusForbidden, false, "Email not verified!", nil)
				}
			}
		}

		return c.Next()
	}
}
