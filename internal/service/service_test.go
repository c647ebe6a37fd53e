package service

import (
	"context"
	"testing"
	"time"

	"milkeyway/internal/database"
	"milkeyway/internal/model"
	"milkeyway/internal/repository"
	ws "milkeyway/internal/websocket"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// fakeMailer records outbound mail instead of publishing to the broker.
type fakeMailer struct {
	otpCodes  []string
	approvals []bool
	notices   []string
}

func (m *fakeMailer) SendOTP(_ context.Context, _, _, code string, _ time.Time) error {
	m.otpCodes = append(m.otpCodes, code)
	return nil
}

func (m *fakeMailer) SendApprovalNotice(_ context.Context, _, _ string, approved bool, _ string) error {
	m.approvals = append(m.approvals, approved)
	return nil
}

func (m *fakeMailer) SendRequestNotice(_ context.Context, _, _, productInterest string) error {
	m.notices = append(m.notices, productInterest)
	return nil
}

type testEnv struct {
	db     *gorm.DB
	mailer *fakeMailer
	hub    *ws.Hub

	users         repository.UserRepository
	verifications repository.VerificationRepository
	tokens        repository.TokenRepository
	farmers       repository.FarmerRepository
	consumers     repository.ConsumerRepository
	requests      repository.RequestRepository
	actions       repository.AdminActionRepository
	products      repository.ProductRepository
	settings      repository.SettingRepository
	txm           repository.TransactionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return &testEnv{
		db:            db,
		mailer:        &fakeMailer{},
		hub:           ws.NewHub(),
		users:         repository.NewUserRepository(db),
		verifications: repository.NewVerificationRepository(db),
		tokens:        repository.NewTokenRepository(db),
		farmers:       repository.NewFarmerRepository(db),
		consumers:     repository.NewConsumerRepository(db),
		requests:      repository.NewRequestRepository(db),
		actions:       repository.NewAdminActionRepository(db),
		products:      repository.NewProductRepository(db),
		settings:      repository.NewSettingRepository(db),
		txm:           repository.NewTransactionManager(db),
	}
}

func (e *testEnv) authService() AuthService {
	return NewAuthService(e.users, e.verifications, e.tokens, e.txm, e.mailer)
}

func (e *testEnv) profileService() ProfileService {
	return NewProfileService(e.users, e.farmers, e.consumers, e.txm, nil, nil, e.hub)
}

func (e *testEnv) adminService() AdminService {
	return NewAdminService(e.users, e.farmers, e.actions, e.settings, e.txm, e.mailer, e.hub)
}

func (e *testEnv) discoveryService() DiscoveryService {
	return NewDiscoveryService(e.farmers, e.products, e.settings)
}

func (e *testEnv) connectionService() ConnectionService {
	return NewConnectionService(e.farmers, e.consumers, e.requests, e.users, e.txm, e.mailer, e.hub)
}

func (e *testEnv) productService() ProductService {
	return NewProductService(e.farmers, e.products)
}

// --- Fixtures ---

func (e *testEnv) createUser(t *testing.T, role, email, phone string, verified bool) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	status := model.UserStatusDraft
	if verified {
		status = model.UserStatusActive
	}
	user := &model.User{
		Name:       "Test " + role,
		Email:      email,
		Phone:      phone,
		Password:   string(hashed),
		Role:       role,
		Status:     status,
		IsVerified: verified,
		Pincode:    "400001",
		Country:    "India",
		State:      "Maharashtra",
		City:       "Mumbai",
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createFarmer(t *testing.T, email, phone string, lat, lon float64, status string) (*model.User, *model.FarmerProfile) {
	t.Helper()
	user := e.createUser(t, model.RoleFarmer, email, phone, true)
	profile := &model.FarmerProfile{
		UserID:           user.ID,
		FarmName:         "Farm of " + email,
		Address:          "Village Road",
		Latitude:         &lat,
		Longitude:        &lon,
		DeliveryRadiusKm: 10,
		Status:           status,
	}
	require.NoError(t, e.db.Create(profile).Error)
	return user, profile
}

func (e *testEnv) createConsumer(t *testing.T, email, phone string, lat, lon float64) (*model.User, *model.ConsumerProfile) {
	t.Helper()
	user := e.createUser(t, model.RoleConsumer, email, phone, true)
	profile := &model.ConsumerProfile{
		UserID:            user.ID,
		Address:           "City Street",
		Latitude:          &lat,
		Longitude:         &lon,
		PreferredRadiusKm: 25,
		Status:            model.ConsumerStatusActive,
	}
	require.NoError(t, e.db.Create(profile).Error)
	return user, profile
}

func (e *testEnv) categoryByName(t *testing.T, name string) *model.ProductCategory {
	t.Helper()
	var c model.ProductCategory
	require.NoError(t, e.db.Where("name = ?", name).First(&c).Error)
	return &c
}
