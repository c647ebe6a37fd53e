package service

import (
	"context"
	"testing"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendPayload(farmerID uuid.UUID, product string) SendRequestDTO {
	return SendRequestDTO{
		FarmerID:        farmerID.String(),
		ProductInterest: product,
		Quantity:        "2.5",
		Message:         "Daily doorstep delivery please",
	}
}

func TestSendRequestCreatesPending(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, consumer := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	_, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)

	resp, err := env.connectionService().SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, resp.Status)
	assert.Equal(t, consumer.ID.String(), resp.ConsumerID)
	assert.Equal(t, "2.5", resp.Quantity)

	require.Len(t, env.mailer.notices, 1, "farmer gets an email about the new request")
	assert.Equal(t, "Milk", env.mailer.notices[0])
}

func TestSendRequestToUnapprovedFarmerFails(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	_, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusPending)

	_, err := env.connectionService().SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	assert.ErrorIs(t, err, ErrFarmerNotApproved)
}

func TestSendRequestDuplicatePendingConflicts(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	_, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	svc := env.connectionService()

	_, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)

	_, err = svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// a different product interest to the same farmer is a new conversation
	_, err = svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Ghee"))
	assert.NoError(t, err)
}

func TestSendRequestInvalidQuantity(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	_, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)

	payload := sendPayload(farmer.ID, "Milk")
	payload.Quantity = "0"
	_, err := env.connectionService().SendRequest(context.Background(), consumerUser.ID, payload)
	assert.Error(t, err)
}

func TestRespondAcceptMaterializesConnection(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, consumer := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	farmerUser, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	svc := env.connectionService()

	sent, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)
	requestID := uuid.MustParse(sent.ID)

	resp, err := svc.RespondToRequest(context.Background(), farmerUser.ID, requestID, RespondRequestDTO{
		Action:          "accept",
		ResponseMessage: "Happy to supply",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAccepted, resp.Status)
	assert.Equal(t, "Happy to supply", resp.FarmerResponse)
	require.NotNil(t, resp.ResponseAt)

	var conn model.Connection
	require.NoError(t, env.db.First(&conn, "farmer_id = ? AND consumer_id = ?", farmer.ID, consumer.ID).Error)
}

func TestRespondTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	farmerUser, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	svc := env.connectionService()

	sent, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)
	requestID := uuid.MustParse(sent.ID)

	_, err = svc.RespondToRequest(context.Background(), farmerUser.ID, requestID, RespondRequestDTO{Action: "reject"})
	require.NoError(t, err)

	_, err = svc.RespondToRequest(context.Background(), farmerUser.ID, requestID, RespondRequestDTO{Action: "accept"})
	assert.ErrorIs(t, err, ErrRequestClosed)
}

func TestRespondToSomeoneElsesRequestFails(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	_, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	otherFarmerUser, _ := env.createFarmer(t, "other@example.com", "9000000003", 19.13, 72.91, model.FarmerStatusApproved)
	svc := env.connectionService()

	sent, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)

	_, err = svc.RespondToRequest(context.Background(), otherFarmerUser.ID, uuid.MustParse(sent.ID), RespondRequestDTO{Action: "accept"})
	assert.ErrorIs(t, err, ErrNotYourRequest)
}

func TestAcceptingTwoRequestsYieldsOneConnection(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, consumer := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	farmerUser, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	svc := env.connectionService()

	for _, product := range []string{"Milk", "Ghee"} {
		sent, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, product))
		require.NoError(t, err)
		_, err = svc.RespondToRequest(context.Background(), farmerUser.ID, uuid.MustParse(sent.ID), RespondRequestDTO{Action: "accept"})
		require.NoError(t, err)
	}

	var count int64
	env.db.Model(&model.Connection{}).Where("farmer_id = ? AND consumer_id = ?", farmer.ID, consumer.ID).Count(&count)
	assert.EqualValues(t, 1, count, "the connection pair is unique")
}

func TestListRequestsByStatus(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	farmerUser, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	svc := env.connectionService()

	sent, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)
	_, err = svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Ghee"))
	require.NoError(t, err)
	_, err = svc.RespondToRequest(context.Background(), farmerUser.ID, uuid.MustParse(sent.ID), RespondRequestDTO{Action: "accept"})
	require.NoError(t, err)

	pending, total, err := svc.ListFarmerRequests(context.Background(), farmerUser.ID, model.RequestStatusPending, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ghee", pending[0].ProductInterest)

	all, total, err := svc.ListConsumerRequests(context.Background(), consumerUser.ID, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}

func TestListConnectionsByRole(t *testing.T) {
	env := newTestEnv(t)
	consumerUser, _ := env.createConsumer(t, "c@example.com", "9000000001", 19.08, 72.88)
	farmerUser, farmer := env.createFarmer(t, "f@example.com", "9000000002", 19.12, 72.90, model.FarmerStatusApproved)
	svc := env.connectionService()

	sent, err := svc.SendRequest(context.Background(), consumerUser.ID, sendPayload(farmer.ID, "Milk"))
	require.NoError(t, err)
	_, err = svc.RespondToRequest(context.Background(), farmerUser.ID, uuid.MustParse(sent.ID), RespondRequestDTO{Action: "accept"})
	require.NoError(t, err)

	forFarmer, err := svc.ListConnections(context.Background(), farmerUser.ID, model.RoleFarmer)
	require.NoError(t, err)
	assert.Len(t, forFarmer, 1)

	forConsumer, err := svc.ListConnections(context.Background(), consumerUser.ID, model.RoleConsumer)
	require.NoError(t, err)
	assert.Len(t, forConsumer, 1)

	_, err = svc.ListConnections(context.Background(), consumerUser.ID, model.RoleSuperAdmin)
	assert.ErrorIs(t, err, ErrWrongRole)
}
