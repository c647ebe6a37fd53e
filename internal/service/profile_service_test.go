package service

import (
	"context"
	"testing"

	"milkeyway/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func farmerProfilePayload() FarmerProfileRequest {
	return FarmerProfileRequest{
		FarmName:         "Green Pastures",
		Address:          "Village Road, Thane",
		Latitude:         floatPtr(19.2),
		Longitude:        floatPtr(72.97),
		DeliveryRadiusKm: 12,
	}
}

func TestUpsertFarmerProfileMovesToPending(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, model.RoleFarmer, "f@example.com", "9000000001", true)

	profile, err := env.profileService().UpsertFarmerProfile(context.Background(), user.ID, farmerProfilePayload())
	require.NoError(t, err)
	assert.Equal(t, model.FarmerStatusPending, profile.Status)
	assert.Equal(t, "Green Pastures", profile.FarmName)
}

func TestUpsertFarmerProfileResubmitsAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	user, existing := env.createFarmer(t, "f@example.com", "9000000001", 19.0, 72.8, model.FarmerStatusRejected)

	payload := farmerProfilePayload()
	payload.FarmName = "Green Pastures Renewed"
	profile, err := env.profileService().UpsertFarmerProfile(context.Background(), user.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, profile.ID, "the profile row is reused")
	assert.Equal(t, model.FarmerStatusPending, profile.Status, "an edit goes back into review")
	assert.Equal(t, "Green Pastures Renewed", profile.FarmName)
}

func TestUpsertFarmerProfileRejectsWrongRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, model.RoleConsumer, "c@example.com", "9000000001", true)

	_, err := env.profileService().UpsertFarmerProfile(context.Background(), user.ID, farmerProfilePayload())
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestUpsertFarmerProfileRejectsBadCoordinates(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, model.RoleFarmer, "f@example.com", "9000000001", true)

	payload := farmerProfilePayload()
	payload.Latitude = floatPtr(123.4)
	_, err := env.profileService().UpsertFarmerProfile(context.Background(), user.ID, payload)
	assert.ErrorIs(t, err, ErrBadCoordinates)
}

func TestUpsertConsumerProfileActivatesAccount(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, model.RoleConsumer, "c@example.com", "9000000001", true)
	user.Status = model.UserStatusDraft
	require.NoError(t, env.db.Save(user).Error)

	profile, err := env.profileService().UpsertConsumerProfile(context.Background(), user.ID, ConsumerProfileRequest{
		Address:           "City Street",
		Latitude:          floatPtr(19.08),
		Longitude:         floatPtr(72.88),
		PreferredRadiusKm: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConsumerStatusActive, profile.Status)

	var fresh model.User
	require.NoError(t, env.db.First(&fresh, "id = ?", user.ID).Error)
	assert.Equal(t, model.UserStatusActive, fresh.Status, "completing the profile activates the consumer")
}

func TestGetFarmerMeWithoutProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, model.RoleFarmer, "f@example.com", "9000000001", true)

	_, err := env.profileService().GetFarmerMe(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
