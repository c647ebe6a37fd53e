package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"milkeyway/internal/mailer"
	"milkeyway/internal/middleware"
	"milkeyway/internal/model"
	"milkeyway/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpLength       = 6
	otpTTL          = 10 * time.Minute
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Sentinel errors for the verification and login flows
var (
	ErrAlreadyRegistered = errors.New("an account with this email or phone is already registered")
	ErrUserNotFound      = errors.New("user not found")
	ErrCodeNotFound      = errors.New("no verification code found")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrCodeExpired       = errors.New("verification code has expired")
	ErrAlreadyVerified   = errors.New("account is already verified")
	ErrNotVerified       = errors.New("account is not verified")
	ErrInvalidLogin      = errors.New("invalid email or password")
	ErrInvalidToken      = errors.New("invalid or expired refresh token")
)

// --- DTOs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Pincode  string `json:"pincode" binding:"required"`
	Country  string `json:"country" binding:"required"`
	State    string `json:"state" binding:"required"`
	City     string `json:"city" binding:"required"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type VerifyOTPRequest struct {
	UserID string `json:"user_id" binding:"required"`
	OTP    string `json:"otp" binding:"required"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	IsVerified bool      `json:"is_verified"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	Pincode    string    `json:"pincode"`
	CreatedAt  string    `json:"created_at"`
}

// AuthService owns registration, OTP verification and session issuance
type AuthService interface {
	Register(ctx context.Context, role string, req RegisterRequest) (*RegisterResponse, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) error
	ResendOTP(ctx context.Context, req ResendOTPRequest) error
	Login(ctx context.Context, req LoginRequest) (*TokenPair, *UserResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error)
}

type authService struct {
	users         repository.UserRepository
	verifications repository.VerificationRepository
	tokens        repository.TokenRepository
	txm           repository.TransactionManager
	mailer        mailer.Mailer
	now           func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	verifications repository.VerificationRepository,
	tokens repository.TokenRepository,
	txm repository.TransactionManager,
	m mailer.Mailer,
) AuthService {
	return &authService{
		users:         users,
		verifications: verifications,
		tokens:        tokens,
		txm:           txm,
		mailer:        m,
		now:           time.Now,
	}
}

func mapUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Phone:      user.Phone,
		Role:       user.Role,
		Status:     user.Status,
		IsVerified: user.IsVerified,
		City:       user.City,
		State:      user.State,
		Country:    user.Country,
		Pincode:    user.Pincode,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
}

// Register creates a draft account and issues a verification code. An
// unverified account holding the same email or phone is overwritten in place
// (re-registration); a verified one rejects the attempt.
func (s *authService) Register(ctx context.Context, role string, req RegisterRequest) (*RegisterResponse, error) {
	if role != model.RoleFarmer && role != model.RoleConsumer {
		return nil, fmt.Errorf("unsupported registration role %q", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiresAt := s.now().Add(otpTTL)

	var user *model.User
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		// Email and phone are independently unique, so the identifiers may
		// be split across rows. Any verified holder of either one blocks
		// the registration; unverified drafts are fair to reclaim.
		existing, lookupErr := s.users.ListByEmailOrPhone(txCtx, req.Email, req.Phone)
		if lookupErr != nil {
			return fmt.Errorf("failed to check existing account: %w", lookupErr)
		}
		for i := range existing {
			if existing[i].IsVerified {
				return ErrAlreadyRegistered
			}
		}

		switch {
		case len(existing) > 0:
			// Re-registration: overwrite the oldest stale draft in place.
			// Any other draft holding the second identifier must be
			// removed first or its unique index blocks the update.
			draft := &existing[0]
			for _, stale := range existing[1:] {
				if deleteErr := s.users.HardDelete(txCtx, stale.ID); deleteErr != nil {
					return fmt.Errorf("failed to remove stale draft: %w", deleteErr)
				}
			}
			draft.Name = req.Name
			draft.Email = req.Email
			draft.Phone = req.Phone
			draft.Password = string(hashed)
			draft.Role = role
			draft.Status = model.UserStatusDraft
			draft.Pincode = req.Pincode
			draft.Country = req.Country
			draft.State = req.State
			draft.City = req.City
			if updateErr := s.users.Update(txCtx, draft); updateErr != nil {
				return fmt.Errorf("failed to update draft account: %w", updateErr)
			}
			user = draft
		default:
			user = &model.User{
				Name:     req.Name,
				Email:    req.Email,
				Phone:    req.Phone,
				Password: string(hashed),
				Role:     role,
				Status:   model.UserStatusDraft,
				Pincode:  req.Pincode,
				Country:  req.Country,
				State:    req.State,
				City:     req.City,
			}
			if createErr := s.users.Create(txCtx, user); createErr != nil {
				return fmt.Errorf("failed to create account: %w", createErr)
			}
		}

		verification := &model.UserVerification{
			UserID:    user.ID,
			OTP:       code,
			ExpiresAt: expiresAt,
		}
		if replaceErr := s.verifications.Replace(txCtx, verification); replaceErr != nil {
			return fmt.Errorf("failed to store verification code: %w", replaceErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Published after commit: a broker outage must not roll back the account.
	// The code stays resendable via ResendOTP.
	if mailErr := s.mailer.SendOTP(ctx, user.Email, user.Name, code, expiresAt); mailErr != nil {
		log.Printf("warning: failed to queue OTP email for %s: %v", user.Email, mailErr)
	}

	return &RegisterResponse{UserID: user.ID.String()}, nil
}

// VerifyOTP promotes a draft account to verified when the submitted code
// matches the latest unexpired verification row. The row is consumed on
// success; a second submission fails with ErrCodeNotFound or
// ErrAlreadyVerified, never double-applies.
func (s *authService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id: %w", err)
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.IsVerified {
			return ErrAlreadyVerified
		}

		verification, err := s.verifications.GetLatestByUser(txCtx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return err
		}

		if verification.OTP != req.OTP {
			return ErrInvalidCode
		}
		// A code submitted at exactly expires_at is already expired
		if !s.now().Before(verification.ExpiresAt) {
			return ErrCodeExpired
		}

		user.IsVerified = true
		if err := s.users.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to mark account verified: %w", err)
		}
		// Single-use: consume the row
		if err := s.verifications.Delete(txCtx, verification.ID); err != nil {
			return fmt.Errorf("failed to consume verification code: %w", err)
		}
		return nil
	})
}

// ResendOTP reissues a verification code for an unverified account.
func (s *authService) ResendOTP(ctx context.Context, req ResendOTPRequest) error {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiresAt := s.now().Add(otpTTL)

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.verifications.Replace(txCtx, &model.UserVerification{
			UserID:    user.ID,
			OTP:       code,
			ExpiresAt: expiresAt,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if mailErr := s.mailer.SendOTP(ctx, user.Email, user.Name, code, expiresAt); mailErr != nil {
		log.Printf("warning: failed to queue OTP email for %s: %v", user.Email, mailErr)
	}
	return nil
}

// Login authenticates a verified account and issues an access/refresh pair.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPair, *UserResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidLogin
	}
	if !user.IsVerified {
		return nil, nil, ErrNotVerified
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, mapUserResponse(user), nil
}

// Refresh rotates a valid refresh token into a fresh pair.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokens.GetValid(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return mapUserResponse(user), nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := s.now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  now.Add(accessTokenTTL).Unix(),
		"iat":  now.Unix(),
	})
	accessStr, err := access.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshStr := uuid.NewString()
	err = s.tokens.Store(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshStr,
		ExpiresAt: now.Add(refreshTokenTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessStr, RefreshToken: refreshStr}, nil
}

// generateOTP draws a 6-digit numeric code from crypto/rand.
func generateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}
