package userValidator

import (
	"encoding/json"
	"fmt"
	"medibook/middleware"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ProfileUpdate is the typed partial update for an account: one optional
// field per attribute the API allows. Keys outside this set reject the
// whole request before this struct is ever bound.
type ProfileUpdate struct {
	Name                   *string `json:"name" validate:"omitempty,min=3"`
	Password               *string `json:"password" validate:"omitempty,min=8"`
	Gender                 *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DateOfBirth            *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	BloodGroup             *string `json:"bloodGroup"`
	Address                *string `json:"address"`
	InsuranceProvider      *string `json:"insuranceProvider"`
	InsuranceNumber        *string `json:"insuranceNumber"`
	EmergencyContactName   *string `json:"emergencyContactName"`
	EmergencyContactNumber *string `json:"emergencyContactNumber"`
}

// ConfirmOTPRequest completes a verification challenge by ID and code
type ConfirmOTPRequest struct {
	ChallengeId uint   `json:"challengeId" validate:"required"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

var allowedUpdateFields = map[string]bool{
	"name":                   true,
	"password":               true,
	"gender":                 true,
	"dateOfBirth":            true,
	"bloodGroup":             true,
	"address":                true,
	"insuranceProvider":      true,
	"insuranceNumber":        true,
	"emergencyContactName":   true,
	"emergencyContactNumber": true,
}

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
		case "min":
			errors[field] = fmt.Sprintf("Must be at least %s characters long!", fieldError.Param())
		case "oneof":
			errors[field] = "Must be one of MALE, FEMALE or OTHER!"
		case "datetime":
			errors[field] = "Must be a date in YYYY-MM-DD format!"
		case "len", "numeric":
			errors[field] = "Must be a 6 digit code!"
		default:
			errors[field] = "Invalid value!"
		}
	}
	return errors
}

// UpdateProfile validator middleware. Any key outside the allow-list
// rejects the entire update; a valid subset is never partially applied.
func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &raw); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(raw) == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"request": "No fields to update!",
			})
		}

		var forbidden []string
		for key := range raw {
			if !allowedUpdateFields[key] {
				forbidden = append(forbidden, key)
			}
		}
		if len(forbidden) > 0 {
			sort.Strings(forbidden)
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false,
				"Update contains forbidden fields!", fiber.Map{"forbiddenFields": forbidden})
		}

		reqData := new(ProfileUpdate)
		if err := json.Unmarshal(c.Body(), reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedProfileUpdate", reqData)
		return c.Next()
	}
}

// ConfirmOTP validator middleware
func ConfirmOTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ConfirmOTPRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		c.Locals("validatedConfirmOTP", reqData)
		return c.Next()
	}
}
