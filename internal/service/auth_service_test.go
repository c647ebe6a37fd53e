package service

import (
	"context"
	"testing"
	"time"

	"milkeyway/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerPayload(email, phone string) RegisterRequest {
	return RegisterRequest{
		Name:     "Asha Patil",
		Email:    email,
		Phone:    phone,
		Password: "secret123",
		Pincode:  "400001",
		Country:  "India",
		State:    "Maharashtra",
		City:     "Mumbai",
	}
}

func (e *testEnv) latestVerification(t *testing.T, userID string) *model.UserVerification {
	t.Helper()
	var v model.UserVerification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("created_at DESC").First(&v).Error)
	return &v
}

func TestRegisterCreatesDraftAndSendsCode(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	resp, err := svc.Register(context.Background(), model.RoleFarmer, registerPayload("asha@example.com", "9876543210"))
	require.NoError(t, err)
	require.NotEmpty(t, resp.UserID)

	var user model.User
	require.NoError(t, env.db.First(&user, "email = ?", "asha@example.com").Error)
	assert.Equal(t, model.RoleFarmer, user.Role)
	assert.Equal(t, model.UserStatusDraft, user.Status)
	assert.False(t, user.IsVerified)

	v := env.latestVerification(t, resp.UserID)
	assert.Len(t, v.OTP, 6)
	require.Len(t, env.mailer.otpCodes, 1)
	assert.Equal(t, v.OTP, env.mailer.otpCodes[0])
}

func TestRegisterVerifiedDuplicateConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, model.RoleFarmer, "asha@example.com", "9876543210", true)

	_, err := env.authService().Register(context.Background(), model.RoleFarmer, registerPayload("asha@example.com", "1112223334"))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterOverwritesUnverifiedDraft(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	first, err := svc.Register(context.Background(), model.RoleFarmer, registerPayload("asha@example.com", "9876543210"))
	require.NoError(t, err)

	payload := registerPayload("asha@example.com", "9876543210")
	payload.Name = "Asha P."
	second, err := svc.Register(context.Background(), model.RoleConsumer, payload)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID, "re-registration reuses the draft row")

	var count int64
	env.db.Model(&model.User{}).Where("email = ?", "asha@example.com").Count(&count)
	assert.EqualValues(t, 1, count)

	var user model.User
	require.NoError(t, env.db.First(&user, "email = ?", "asha@example.com").Error)
	assert.Equal(t, "Asha P.", user.Name)
	assert.Equal(t, model.RoleConsumer, user.Role)

	// the old code was replaced, only the latest one is live
	var vcount int64
	env.db.Model(&model.UserVerification{}).Where("user_id = ?", user.ID).Count(&vcount)
	assert.EqualValues(t, 1, vcount)
}

func TestRegisterRejectsWhenPhoneHeldByVerifiedAccount(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	// The email belongs to a stale draft while the phone belongs to a
	// verified account. The verified holder must win regardless of which
	// row a lookup happens to see first.
	draft, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("asha@example.com", "9876543210"))
	require.NoError(t, err)
	verified := env.createUser(t, model.RoleFarmer, "ravi@example.com", "5556667778", true)

	_, err = svc.Register(context.Background(), model.RoleConsumer, registerPayload("asha@example.com", "5556667778"))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	// Neither row was touched
	var user model.User
	require.NoError(t, env.db.First(&user, "id = ?", draft.UserID).Error)
	assert.Equal(t, "9876543210", user.Phone)
	require.NoError(t, env.db.First(&user, "id = ?", verified.ID).Error)
	assert.True(t, user.IsVerified)
}

func TestRegisterMergesSplitDrafts(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	first, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("asha@example.com", "9876543210"))
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "5556667778"))
	require.NoError(t, err)

	// One identifier from each draft: the older draft is reclaimed and
	// the displaced one removed so its unique indexes free up.
	merged, err := svc.Register(context.Background(), model.RoleFarmer, registerPayload("asha@example.com", "5556667778"))
	require.NoError(t, err)
	assert.Equal(t, first.UserID, merged.UserID)

	var count int64
	env.db.Unscoped().Model(&model.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
	env.db.Unscoped().Model(&model.User{}).Where("id = ?", second.UserID).Count(&count)
	assert.EqualValues(t, 0, count, "the displaced draft is gone for real")

	var user model.User
	require.NoError(t, env.db.First(&user, "id = ?", merged.UserID).Error)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, "5556667778", user.Phone)
	assert.Equal(t, model.RoleFarmer, user.Role)
}

func TestVerifyOTPHappyPathConsumesCode(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	resp, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "9000000001"))
	require.NoError(t, err)
	code := env.latestVerification(t, resp.UserID).OTP

	require.NoError(t, svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: resp.UserID, OTP: code}))

	var user model.User
	require.NoError(t, env.db.First(&user, "email = ?", "ravi@example.com").Error)
	assert.True(t, user.IsVerified)

	// single-use: the same code cannot be replayed
	err = svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: resp.UserID, OTP: code})
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	var vcount int64
	env.db.Model(&model.UserVerification{}).Where("user_id = ?", user.ID).Count(&vcount)
	assert.EqualValues(t, 0, vcount)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	resp, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "9000000001"))
	require.NoError(t, err)
	code := env.latestVerification(t, resp.UserID).OTP

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	err = svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: resp.UserID, OTP: wrong})
	assert.ErrorIs(t, err, ErrInvalidCode)

	var user model.User
	require.NoError(t, env.db.First(&user, "email = ?", "ravi@example.com").Error)
	assert.False(t, user.IsVerified, "a failed attempt must not verify the account")
}

func TestVerifyOTPExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService().(*authService)

	resp, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "9000000001"))
	require.NoError(t, err)
	v := env.latestVerification(t, resp.UserID)

	// one second before expiry still passes
	svc.now = func() time.Time { return v.ExpiresAt.Add(-time.Second) }
	require.NoError(t, svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: resp.UserID, OTP: v.OTP}))
}

func TestVerifyOTPFailsAtExactExpiry(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService().(*authService)

	resp, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "9000000001"))
	require.NoError(t, err)
	v := env.latestVerification(t, resp.UserID)

	svc.now = func() time.Time { return v.ExpiresAt }
	err = svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: resp.UserID, OTP: v.OTP})
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestResendOTPReplacesCode(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	resp, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "9000000001"))
	require.NoError(t, err)
	firstID := env.latestVerification(t, resp.UserID).ID

	require.NoError(t, svc.ResendOTP(context.Background(), ResendOTPRequest{Email: "ravi@example.com"}))

	v := env.latestVerification(t, resp.UserID)
	assert.NotEqual(t, firstID, v.ID)

	var vcount int64
	env.db.Model(&model.UserVerification{}).Where("user_id = ?", resp.UserID).Count(&vcount)
	assert.EqualValues(t, 1, vcount, "at most one live code per user")
}

func TestLoginRequiresVerification(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService()

	_, err := svc.Register(context.Background(), model.RoleConsumer, registerPayload("ravi@example.com", "9000000001"))
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), LoginRequest{Email: "ravi@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestLoginAndRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, model.RoleConsumer, "ravi@example.com", "9000000001", true)
	svc := env.authService()

	pair, user, err := svc.Login(context.Background(), LoginRequest{Email: "ravi@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "ravi@example.com", user.Email)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the old refresh token is revoked by the rotation
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, model.RoleConsumer, "ravi@example.com", "9000000001", true)

	_, _, err := env.authService().Login(context.Background(), LoginRequest{Email: "ravi@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}
