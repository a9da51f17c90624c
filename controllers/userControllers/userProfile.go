package userController

import (
	"errors"
	"log"
	"medibook/config"
	"medibook/database"
	"medibook/middleware"
	"medibook/models"
	"medibook/utils"
	userValidator "medibook/validators/userValidator"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// loadUser retrieves the authenticated, non-deleted user from the request
// context set by the session middleware.
func loadUser(c *fiber.Ctx) (models.User, bool) {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return models.User{}, false
	}
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return models.User{}, false
	}
	return user, true
}

// GetProfile returns the authenticated account.
func GetProfile(c *fiber.Ctx) error {
	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User profile.", user)
}

// UpdateProfile applies an allow-listed partial update. The validator has
// already rejected any unexpected key, so every field present here is
// applied together.
func UpdateProfile(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedProfileUpdate").(*userValidator.ProfileUpdate)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if reqData.Name != nil {
		user.Name = *reqData.Name
	}
	if reqData.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*reqData.Password), config.AppConfig.SaltRound)
		if err != nil {
			log.Printf("Error hashing password: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
		}
		user.Password = string(hashedPassword)
	}
	if reqData.Gender != nil {
		user.Gender = *reqData.Gender
	}
	if reqData.DateOfBirth != nil {
		parsed, err := time.Parse("2006-01-02", *reqData.DateOfBirth)
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"dateOfBirth": "Must be a date in YYYY-MM-DD format!",
			})
		}
		dob := datatypes.Date(parsed)
		user.DateOfBirth = &dob
	}
	if reqData.BloodGroup != nil {
		user.BloodGroup = *reqData.BloodGroup
	}
	if reqData.Address != nil {
		user.Address = *reqData.Address
	}
	if reqData.InsuranceProvider != nil {
		user.InsuranceProvider = *reqData.InsuranceProvider
	}
	if reqData.InsuranceNumber != nil {
		user.InsuranceNumber = *reqData.InsuranceNumber
	}
	if reqData.EmergencyContactName != nil {
		user.EmergencyContactName = *reqData.EmergencyContactName
	}
	if reqData.EmergencyContactNumber != nil {
		user.EmergencyContactNumber = *reqData.EmergencyContactNumber
	}

	if err := database.Database.Db.Save(&user).Error; err != nil {
		log.Printf("Error updating user profile: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully.", user)
}

// DeleteAccount soft-deletes the account. Session revocation cascades only
// when the policy flag says so.
func DeleteAccount(c *fiber.Ctx) error {
	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	user.IsDeleted = true
	if err := database.Database.Db.Save(&user).Error; err != nil {
		log.Printf("Error deleting user %d: %v", user.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete account!", nil)
	}

	if config.AppConfig.CascadeSessionsOnDelete {
		if err := utils.RevokeAllForUser(database.Database.Db, user.ID); err != nil {
			log.Printf("Error revoking sessions for user %d: %v", user.ID, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Account deleted successfully.", nil)
}

// AttachProfileImage stores the raw request body as the account's image
// blob. Upload transport and re-encoding live outside this service.
func AttachProfileImage(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Empty image body!", nil)
	}

	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	user.ProfileImage = append([]byte(nil), body...)
	if err := database.Database.Db.Save(&user).Error; err != nil {
		log.Printf("Error saving profile image: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save image!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile image saved.", nil)
}

// SendMobileOTP starts mobile ownership verification for the
// authenticated account.
func SendMobileOTP(c *fiber.Ctx) error {
	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if user.IsMobileVerified {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Mobile already verified!", nil)
	}

	otp, code, err := utils.CreateChallenge(user.ID, models.OTPPurposeMobileVerify)
	if err != nil {
		log.Printf("Error creating OTP challenge: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create OTP!", nil)
	}

	if err := utils.SendOTPToMobile(user.Mobile, code); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP to mobile!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", fiber.Map{
		"challengeId": otp.ID,
	})
}

// ConfirmMobileOTP completes mobile verification: a correct code flips the
// flag and consumes the challenge.
func ConfirmMobileOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedConfirmOTP").(*userValidator.ConfirmOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	otp, err := utils.VerifyChallenge(reqData.ChallengeId, &user.ID, models.OTPPurposeMobileVerify, reqData.Code)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCode) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired verification request!", nil)
	}

	user.IsMobileVerified = true
	if err := database.Database.Db.Save(&user).Error; err != nil {
		log.Printf("Error updating verification status: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update verification status!", nil)
	}

	utils.ConsumeChallenge(otp)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Mobile number verified successfully.", nil)
}

// SendEmailOTP starts email ownership verification for the authenticated
// account.
func SendEmailOTP(c *fiber.Ctx) error {
	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if user.IsEmailVerified {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email already verified!", nil)
	}

	otp, code, err := utils.CreateChallenge(user.ID, models.OTPPurposeEmailVerify)
	if err != nil {
		log.Printf("Error creating OTP challenge: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create OTP!", nil)
	}

	if err := utils.SendOTPEmail(code, user.Email); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP to email!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", fiber.Map{
		"challengeId": otp.ID,
	})
}

// ConfirmEmailOTP completes email verification.
func ConfirmEmailOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedConfirmOTP").(*userValidator.ConfirmOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, ok := loadUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	otp, err := utils.VerifyChallenge(reqData.ChallengeId, &user.ID, models.OTPPurposeEmailVerify, reqData.Code)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCode) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired verification request!", nil)
	}

	user.IsEmailVerified = true
	if err := database.Database.Db.Save(&user).Error; err != nil {
		log.Printf("Error updating verification status: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update verification status!", nil)
	}

	utils.ConsumeChallenge(otp)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Email verified successfully.", nil)
}
