package userRoutes

import (
	userProfileController "medibook/controllers/userControllers"
	"medibook/middleware"
	userProfileValidator "medibook/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user", middleware.SessionMiddleware)

	userGroup.Get("/profile",
		middleware.RequireVerified(middleware.ChannelMobile, middleware.ChannelEmail),
		userProfileController.GetProfile)
	userGroup.Patch("/profile",
		middleware.RequireVerified(middleware.ChannelMobile),
		userProfileValidator.UpdateProfile(),
		userProfileController.UpdateProfile)
	userGroup.Delete("/profile",
		middleware.RequireVerified(middleware.ChannelMobile),
		userProfileController.DeleteAccount)
	userGroup.Put("/profile/image", userProfileController.AttachProfileImage)

	userGroup.Post("/verify/mobile/send", userProfileController.SendMobileOTP)
	userGroup.Patch("/verify/mobile/confirm",
		userProfileValidator.ConfirmOTP(),
		userProfileController.ConfirmMobileOTP)
	userGroup.Post("/verify/email/send",
		middleware.RequireVerified(middleware.ChannelMobile),
		userProfileController.SendEmailOTP)
	userGroup.Patch("/verify/email/confirm",
		middleware.RequireVerified(middleware.ChannelMobile),
		userProfileValidator.ConfirmOTP(),
		userProfileController.ConfirmEmailOTP)
}
