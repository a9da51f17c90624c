package userController_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"medibook/config"
	"medibook/database"
	"medibook/models"
	"medibook/routers/authRoutes"
	"medibook/routers/userRoutes"
	"medibook/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.AppConfig = &config.Config{SaltRound: bcrypt.MinCost}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Client{}, &models.OTP{}))
	database.Database = database.DbInstance{Db: db}

	origSMS, origEmail := utils.SendOTPToMobile, utils.SendOTPEmail
	utils.SendOTPToMobile = func(mobile, otp string) error { return nil }
	utils.SendOTPEmail = func(otp, email string) error { return nil }
	t.Cleanup(func() {
		utils.SendOTPToMobile = origSMS
		utils.SendOTPEmail = origEmail
	})

	app := fiber.New()
	authRoutes.SetupAuthRoutes(app)
	userRoutes.SetupUserRoutes(app)
	return app, db
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (*http.Response, apiResponse) {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	resp, parsed, _ := doRawRequest(t, app, method, path, raw, "application/json", headers)
	return resp, parsed
}

func doRawRequest(t *testing.T, app *fiber.App, method, path string, body []byte, contentType string, headers map[string]string) (*http.Response, apiResponse, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "test-agent")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed apiResponse
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp, parsed, string(raw)
}

type sessionPayload struct {
	User   models.User   `json:"user"`
	Client models.Client `json:"client"`
}

func registerUser(t *testing.T, app *fiber.App, email, mobile string) sessionPayload {
	t.Helper()

	resp, body := doRequest(t, app, "POST", "/auth/register", fiber.Map{
		"name":     "Test User",
		"email":    email,
		"mobile":   mobile,
		"password": "password123",
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var payload sessionPayload
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	return payload
}

func sessionHeaders(session sessionPayload) map[string]string {
	return map[string]string{
		"X-Client-Id":   strconv.FormatUint(uint64(session.Client.ID), 10),
		"Authorization": "Bearer " + session.Client.Token,
	}
}

func markVerified(t *testing.T, db *gorm.DB, userID uint, mobile, email bool) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_mobile_verified": mobile,
			"is_email_verified":  email,
		}).Error)
}

func challengeCode(t *testing.T, db *gorm.DB, challengeId uint) string {
	t.Helper()
	var otp models.OTP
	require.NoError(t, db.Where("id = ?", challengeId).First(&otp).Error)
	return utils.GenerateCode(otp.Secret)
}

func wrongCodeFor(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestGetProfile_verifiedGuards(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")

	resp, body := doRequest(t, app, "GET", "/user/profile", nil, sessionHeaders(session))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Mobile number not verified!", body.Message)

	markVerified(t, db, session.User.ID, true, false)
	resp, body = doRequest(t, app, "GET", "/user/profile", nil, sessionHeaders(session))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Email not verified!", body.Message)

	markVerified(t, db, session.User.ID, true, true)
	resp, body = doRequest(t, app, "GET", "/user/profile", nil, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profile models.User
	require.NoError(t, json.Unmarshal(body.Data, &profile))
	assert.Equal(t, "a@x.com", profile.Email)
	assert.True(t, profile.IsMobileVerified)
	assert.True(t, profile.IsEmailVerified)
}

func TestGetProfile_withoutSession(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, "GET", "/user/profile", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Missing X-Client-Id header", body.Message)
}

func TestUpdateProfile_requiresMobileVerified(t *testing.T) {
	app, _ := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")

	resp, body := doRequest(t, app, "PATCH", "/user/profile", fiber.Map{
		"name": "Renamed",
	}, sessionHeaders(session))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Mobile number not verified!", body.Message)
}

func TestUpdateProfile_forbiddenFieldsLeaveAccountUntouched(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")
	markVerified(t, db, session.User.ID, true, false)

	resp, body := doRequest(t, app, "PATCH", "/user/profile", fiber.Map{
		"name":   "Renamed",
		"email":  "evil@x.com",
		"mobile": "+9999",
	}, sessionHeaders(session))

	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Update contains forbidden fields!", body.Message)

	var data struct {
		ForbiddenFields []string `json:"forbiddenFields"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, []string{"email", "mobile"}, data.ForbiddenFields)

	// Nothing was applied, not even the allowed key
	var stored models.User
	require.NoError(t, db.Where("id = ?", session.User.ID).First(&stored).Error)
	assert.Equal(t, "Test User", stored.Name)
	assert.Equal(t, "a@x.com", stored.Email)
}

func TestUpdateProfile_fullAllowedSet(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")
	markVerified(t, db, session.User.ID, true, false)

	resp, _ := doRequest(t, app, "PATCH", "/user/profile", fiber.Map{
		"name":                   "Renamed User",
		"password":               "changedpass789",
		"gender":                 "FEMALE",
		"dateOfBirth":            "1990-06-15",
		"bloodGroup":             "O+",
		"address":                "12 Hill Road",
		"insuranceProvider":      "Acme Health",
		"insuranceNumber":        "INS-42",
		"emergencyContactName":   "Next Of Kin",
		"emergencyContactNumber": "+3000",
	}, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.Where("id = ?", session.User.ID).First(&stored).Error)
	assert.Equal(t, "Renamed User", stored.Name)
	assert.Equal(t, "FEMALE", stored.Gender)
	require.NotNil(t, stored.DateOfBirth)
	assert.Equal(t, "O+", stored.BloodGroup)
	assert.Equal(t, "12 Hill Road", stored.Address)
	assert.Equal(t, "Acme Health", stored.InsuranceProvider)
	assert.Equal(t, "INS-42", stored.InsuranceNumber)
	assert.Equal(t, "Next Of Kin", stored.EmergencyContactName)
	assert.Equal(t, "+3000", stored.EmergencyContactNumber)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("changedpass789")))

	// Identity and verification state survive an update
	assert.Equal(t, "a@x.com", stored.Email)
	assert.Equal(t, "+1000", stored.Mobile)
	assert.True(t, stored.IsMobileVerified)
}

func TestUpdateProfile_invalidGender(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")
	markVerified(t, db, session.User.ID, true, false)

	resp, body := doRequest(t, app, "PATCH", "/user/profile", fiber.Map{
		"gender": "YES",
	}, sessionHeaders(session))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Validation failed!", body.Message)
}

func TestDeleteAccount(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")
	markVerified(t, db, session.User.ID, true, false)

	resp, _ := doRequest(t, app, "DELETE", "/user/profile", nil, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.Where("id = ?", session.User.ID).First(&stored).Error)
	assert.True(t, stored.IsDeleted)

	// Without cascade the client row stays live, but the deleted owner
	// still locks the session out
	var count int64
	require.NoError(t, db.Model(&models.Client{}).
		Where("user_id = ? AND is_deleted = ?", session.User.ID, false).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	resp, body := doRequest(t, app, "GET", "/user/profile", nil, sessionHeaders(session))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or revoked session", body.Message)
}

func TestDeleteAccount_cascadeRevokesSessions(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")
	markVerified(t, db, session.User.ID, true, false)
	config.AppConfig.CascadeSessionsOnDelete = true

	resp, _ := doRequest(t, app, "DELETE", "/user/profile", nil, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Client{}).
		Where("user_id = ? AND is_deleted = ?", session.User.ID, false).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestAttachProfileImage(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")

	image := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	resp, _, _ := doRawRequest(t, app, "PUT", "/user/profile/image", image, "image/jpeg", sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.Where("id = ?", session.User.ID).First(&stored).Error)
	assert.Equal(t, image, stored.ProfileImage)
}

func TestAttachProfileImage_emptyBody(t *testing.T) {
	app, _ := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")

	resp, body, _ := doRawRequest(t, app, "PUT", "/user/profile/image", nil, "image/jpeg", sessionHeaders(session))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Empty image body!", body.Message)
}

func TestMobileVerify_fullLoop(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")

	resp, body := doRequest(t, app, "POST", "/user/verify/mobile/send", nil, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sent struct {
		ChallengeId uint `json:"challengeId"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &sent))
	code := challengeCode(t, db, sent.ChallengeId)

	resp, body = doRequest(t, app, "PATCH", "/user/verify/mobile/confirm", fiber.Map{
		"challengeId": sent.ChallengeId,
		"code":        wrongCodeFor(code),
	}, sessionHeaders(session))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid OTP!", body.Message)

	resp, _ = doRequest(t, app, "PATCH", "/user/verify/mobile/confirm", fiber.Map{
		"challengeId": sent.ChallengeId,
		"code":        code,
	}, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.Where("id = ?", session.User.ID).First(&stored).Error)
	assert.True(t, stored.IsMobileVerified)

	// A verified mobile cannot be re-challenged
	resp, body = doRequest(t, app, "POST", "/user/verify/mobile/send", nil, sessionHeaders(session))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Mobile already verified!", body.Message)

	// Nor can the consumed challenge be replayed
	resp, _ = doRequest(t, app, "PATCH", "/user/verify/mobile/confirm", fiber.Map{
		"challengeId": sent.ChallengeId,
		"code":        code,
	}, sessionHeaders(session))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMobileConfirm_scopedToOwner(t *testing.T) {
	app, db := setupTestApp(t)
	owner := registerUser(t, app, "a@x.com", "+1000")
	intruder := registerUser(t, app, "b@x.com", "+2000")

	resp, body := doRequest(t, app, "POST", "/user/verify/mobile/send", nil, sessionHeaders(owner))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sent struct {
		ChallengeId uint `json:"challengeId"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &sent))
	code := challengeCode(t, db, sent.ChallengeId)

	resp, body = doRequest(t, app, "PATCH", "/user/verify/mobile/confirm", fiber.Map{
		"challengeId": sent.ChallengeId,
		"code":        code,
	}, sessionHeaders(intruder))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired verification request!", body.Message)

	var stored models.User
	require.NoError(t, db.Where("id = ?", intruder.User.ID).First(&stored).Error)
	assert.False(t, stored.IsMobileVerified)
}

func TestEmailVerify_requiresMobileFirst(t *testing.T) {
	app, _ := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")

	resp, body := doRequest(t, app, "POST", "/user/verify/email/send", nil, sessionHeaders(session))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Mobile number not verified!", body.Message)
}

func TestEmailVerify_fullLoop(t *testing.T) {
	app, db := setupTestApp(t)
	session := registerUser(t, app, "a@x.com", "+1000")
	markVerified(t, db, session.User.ID, true, false)

	resp, body := doRequest(t, app, "POST", "/user/verify/email/send", nil, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sent struct {
		ChallengeId uint `json:"challengeId"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &sent))
	code := challengeCode(t, db, sent.ChallengeId)

	resp, _ = doRequest(t, app, "PATCH", "/user/verify/email/confirm", fiber.Map{
		"challengeId": sent.ChallengeId,
		"code":        code,
	}, sessionHeaders(session))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.Where("id = ?", session.User.ID).First(&stored).Error)
	assert.True(t, stored.IsEmailVerified)

	resp, body = doRequest(t, app, "POST", "/user/verify/email/send", nil, sessionHeaders(session))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already verified!", body.Message)
}
