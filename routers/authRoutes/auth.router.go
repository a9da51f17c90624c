package authRoutes

import (
	authControllers "medibook/controllers/auth"
	"medibook/middleware"
	authValidators "medibook/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", authValidators.Register(), authControllers.Register)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Post("/logout", middleware.SessionMiddleware, authControllers.Logout)
	authGroup.Post("/otp/send", authValidators.SendOTP(), authControllers.LoginSendOTP)
	authGroup.Post("/otp/verify", authValidators.VerifyOTP(), authControllers.LoginVerifyOTP)
	authGroup.Post("/password/forgot", authValidators.SendOTP(), authControllers.ForgotPasswordSendOTP)
	authGroup.Patch("/password/reset", authValidators.ResetPassword(), authControllers.ForgotPasswordReset)
}
