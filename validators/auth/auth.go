package authValidator

import (
	"fmt"
	"medibook/middleware"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// mobileRegex accepts an optional leading + followed by 4 to 15 digits
var mobileRegex = regexp.MustCompile(`^\+?[0-9]{4,15}$`)

func init() {
	_ = validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRegex.MatchString(fl.Field().String())
	})
}

// RegisterRequest is the validated signup payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest carries either email or mobile plus the password
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty,mobile"`
	Password string `json:"password" validate:"required,min=8"`
}

// SendOTPRequest names the delivery channel by carrying exactly one of
// email or mobile
type SendOTPRequest struct {
	Email  string `json:"email" validate:"omitempty,email"`
	Mobile string `json:"mobile" validate:"omitempty,mobile"`
}

// VerifyOTPRequest completes a challenge by ID and submitted code
type VerifyOTPRequest struct {
	ChallengeId uint   `json:"challengeId" validate:"required"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

// ResetPasswordRequest completes a password-reset challenge
type ResetPasswordRequest struct {
	ChallengeId uint   `json:"challengeId" validate:"required"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	Password    string `json:"password" validate:"required,min=8"`
}

// fieldErrors maps a validation failure onto the field->message shape the
// API returns.
func fieldErrors(err error) map[string]string {
	errors := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["request"] = "Invalid request body!"
		return errors
	}
	for _, fieldError := range validationErrors {
		field := strings.ToLower(fieldError.Field()[:1]) + fieldError.Field()[1:]
		switch fieldError.Tag() {
		case "required":
			errors[field] = "This field is required!"
		case "email":
			errors[field] = "Invalid email!"
		case "mobile":
			errors[field] = "Invalid mobile number!"
		case "min":
			errors[field] = fmt.Sprintf("Must be at least %s characters long!", fieldError.Param())
		case "len", "numeric":
			errors[field] = "Must be a 6 digit code!"
		default:
			errors[field] = "Invalid value!"
		}
	}
	return errors
}

// Register validator middleware
func Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RegisterRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		c.Locals("validatedRegister", reqData)
		return c.Next()
	}
}

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Email == "" && reqData.Mobile == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"credentials": "Either email or mobile number is required!",
			})
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}

// SendOTP validator middleware; requires exactly one of email or mobile
func SendOTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SendOTPRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if (reqData.Email == "" && reqData.Mobile == "") || (reqData.Email != "" && reqData.Mobile != "") {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"credentials": "Provide either email or mobile (only one).",
			})
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedSendOTP", reqData)
		return c.Next()
	}
}

// VerifyOTP validator middleware
func VerifyOTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(VerifyOTPRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		c.Locals("validatedVerifyOTP", reqData)
		return c.Next()
	}
}

// ResetPassword validator middleware
func ResetPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ResetPasswordRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		c.Locals("validatedResetPassword", reqData)
		return c.Next()
	}
}
