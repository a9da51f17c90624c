package authController

import (
	"errors"
	"log"
	"medibook/config"
	"medibook/database"
	"medibook/middleware"
	"medibook/models"
	"medibook/utils"
	authValidator "medibook/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// findUserByEmailOrMobile retrieves a non-deleted user by whichever
// identifier is set.
func findUserByEmailOrMobile(email, mobile string) (models.User, error) {
	var user models.User
	var result *gorm.DB

	if email != "" {
		result = database.Database.Db.Where("email = ? AND is_deleted = ?", email, false).First(&user)
	} else {
		result = database.Database.Db.Where("mobile = ? AND is_deleted = ?", mobile, false).First(&user)
	}

	return user, result.Error
}

// Register creates the account and its first session as one unit: if the
// session cannot be minted the account does not survive either.
func Register(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRegister").(*authValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	// Check if mobile already exists
	if err := db.Where("mobile = ? AND is_deleted = ?", reqData.Mobile, false).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Mobile number is already registered!", nil)
	}

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Mobile:   reqData.Mobile,
		Password: string(hashedPassword),
	}

	var client models.Client
	clientCreationFailed := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		created, err := utils.MintClient(tx, newUser.ID, c.Get("User-Agent"))
		if err != nil {
			clientCreationFailed = true
			return err
		}
		client = created
		return nil
	})
	if err != nil {
		log.Printf("Error saving user to database: %v", err)
		if clientCreationFailed {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}

	// Clean Response
	newUser.Password = ""

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", fiber.Map{
		"user":   newUser,
		"client": client,
	})
}

// Login authenticates by email or mobile and ensures exactly one live
// session exists for the presenting device afterwards.
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := findUserByEmailOrMobile(reqData.Email, reqData.Mobile)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	// Validate password; a bcrypt infrastructure failure is not a mismatch
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Wrong Password", nil)
		}
		log.Printf("Error comparing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify credentials!", nil)
	}

	client, err := utils.EstablishSession(database.Database.Db, user.ID, c.Get("User-Agent"))
	if err != nil {
		log.Printf("Error establishing session: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
	}

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":   user,
		"client": client,
	})
}

// Logout revokes the presenting session. Revoking twice is a no-op.
func Logout(c *fiber.Ctx) error {
	client, ok := c.Locals("client").(*models.Client)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid user session!", nil)
	}

	if err := utils.RevokeClient(database.Database.Db, client); err != nil {
		log.Printf("Error revoking session %d: %v", client.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to sign out!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Signed out successfully.", nil)
}

// LoginSendOTP starts a passwordless login: creates a challenge for the
// account named by email or mobile and delivers the derived code over the
// supplied channel. A delivery failure leaves the challenge in place.
func LoginSendOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSendOTP").(*authValidator.SendOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := findUserByEmailOrMobile(reqData.Email, reqData.Mobile)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Account not found!", nil)
	}

	otp, code, err := utils.CreateChallenge(user.ID, models.OTPPurposeLogin)
	if err != nil {
		log.Printf("Error creating OTP challenge: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create OTP!", nil)
	}

	if reqData.Mobile != "" {
		err = utils.SendOTPToMobile(user.Mobile, code)
	} else {
		err = utils.SendOTPEmail(code, user.Email)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", fiber.Map{
		"challengeId": otp.ID,
	})
}

// LoginVerifyOTP completes a passwordless login: a correct code mints a
// session for the challenge's owner and consumes the challenge.
func LoginVerifyOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedVerifyOTP").(*authValidator.VerifyOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	otp, err := utils.VerifyChallenge(reqData.ChallengeId, nil, models.OTPPurposeLogin, reqData.Code)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCode) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired verification request!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", otp.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	client, err := utils.EstablishSession(database.Database.Db, user.ID, c.Get("User-Agent"))
	if err != nil {
		log.Printf("Error establishing session: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
	}

	utils.ConsumeChallenge(otp)

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP verified successfully.", fiber.Map{
		"user":   user,
		"client": client,
	})
}

// ForgotPasswordSendOTP starts a password reset over OTP for the account
// named by email or mobile.
func ForgotPasswordSendOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSendOTP").(*authValidator.SendOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := findUserByEmailOrMobile(reqData.Email, reqData.Mobile)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Account not found!", nil)
	}

	otp, code, err := utils.CreateChallenge(user.ID, models.OTPPurposePasswordReset)
	if err != nil {
		log.Printf("Error creating OTP challenge: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create OTP!", nil)
	}

	if reqData.Mobile != "" {
		err = utils.SendOTPToMobile(user.Mobile, code)
	} else {
		err = utils.SendOTPEmail(code, user.Email)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", fiber.Map{
		"challengeId": otp.ID,
	})
}

// ForgotPasswordReset completes the reset: a correct code replaces the
// password, consumes the challenge and signs the device in.
func ForgotPasswordReset(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedResetPassword").(*authValidator.ResetPasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	otp, err := utils.VerifyChallenge(reqData.ChallengeId, nil, models.OTPPurposePasswordReset, reqData.Code)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCode) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired verification request!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", otp.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	user.Password = string(hashedPassword)
	if err := database.Database.Db.Save(&user).Error; err != nil {
		log.Printf("Error updating user password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update password!", nil)
	}

	client, err := utils.EstablishSession(database.Database.Db, user.ID, c.Get("User-Agent"))
	if err != nil {
		log.Printf("Error establishing session: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
	}

	utils.ConsumeChallenge(otp)

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successfully.", fiber.Map{
		"user":   user,
		"client": client,
	})
}
