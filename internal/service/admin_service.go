package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"milkeyway/internal/mailer"
	"milkeyway/internal/model"
	"milkeyway/internal/repository"
	ws "milkeyway/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrFarmerNotFound = errors.New("farmer not found")

// --- DTOs ---

type RejectFarmerRequest struct {
	Reason string `json:"reason"`
}

type FarmerModerationView struct {
	UserID    string            `json:"user_id"`
	FarmerID  string            `json:"farmer_id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	FarmName  string            `json:"farm_name"`
	Status    string            `json:"status"`
	City      string            `json:"city"`
	Docs      *model.FarmerDocs `json:"docs,omitempty"`
	CreatedAt string            `json:"created_at"`
}

type UpdateSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// AdminService owns the moderation workflow: the farmer approval state
// machine, the audit trail, and platform settings.
type AdminService interface {
	ApproveFarmer(ctx context.Context, adminID, targetUserID uuid.UUID) error
	RejectFarmer(ctx context.Context, adminID, targetUserID uuid.UUID, reason string) error
	ListFarmers(ctx context.Context, status string, page, limit int) ([]FarmerModerationView, int64, error)
	ListActions(ctx context.Context, page, limit int) ([]model.AdminAction, int64, error)
	ListSettings(ctx context.Context) ([]model.PlatformSetting, error)
	UpdateSetting(ctx context.Context, adminID uuid.UUID, req UpdateSettingRequest) (*model.PlatformSetting, error)
}

type adminService struct {
	users    repository.UserRepository
	farmers  repository.FarmerRepository
	actions  repository.AdminActionRepository
	settings repository.SettingRepository
	txm      repository.TransactionManager
	mailer   mailer.Mailer
	hub      *ws.Hub
}

func NewAdminService(
	users repository.UserRepository,
	farmers repository.FarmerRepository,
	actions repository.AdminActionRepository,
	settings repository.SettingRepository,
	txm repository.TransactionManager,
	m mailer.Mailer,
	hub *ws.Hub,
) AdminService {
	return &adminService{
		users:    users,
		farmers:  farmers,
		actions:  actions,
		settings: settings,
		txm:      txm,
		mailer:   m,
		hub:      hub,
	}
}

// ApproveFarmer applies the full approval transition atomically:
// User.status=active, FarmerProfile.status=approved, docs verified, plus an
// audit row. Approving an already-approved farmer reapplies the same end
// state and appends another audit row.
func (s *adminService) ApproveFarmer(ctx context.Context, adminID, targetUserID uuid.UUID) error {
	var user *model.User
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.lockFarmer(txCtx, targetUserID)
		if err != nil {
			return err
		}

		profile, err := s.farmers.GetProfileByUserIDForUpdate(txCtx, targetUserID)
		if err != nil {
			return ErrFarmerNotFound
		}

		user.Status = model.UserStatusActive
		if err := s.users.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to activate account: %w", err)
		}

		profile.Status = model.FarmerStatusApproved
		if err := s.farmers.UpdateProfile(txCtx, profile); err != nil {
			return fmt.Errorf("failed to approve profile: %w", err)
		}

		// Docs are keyed by FarmerProfile.ID, not User.ID
		if err := s.farmers.SetDocsVerified(txCtx, profile.ID, true); err != nil {
			return fmt.Errorf("failed to verify documents: %w", err)
		}

		return s.actions.Log(txCtx, &model.AdminAction{
			AdminID:    adminID,
			TargetID:   targetUserID,
			ActionType: model.ActionApproveFarmer,
		})
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastEvent(ws.EventProfileApproved, map[string]string{"user_id": targetUserID.String()})
	if mailErr := s.mailer.SendApprovalNotice(ctx, user.Email, user.Name, true, ""); mailErr != nil {
		log.Printf("admin: failed to queue approval email for %s: %v", user.Email, mailErr)
	}
	return nil
}

// RejectFarmer is the mirror transition: account inactive, profile rejected,
// docs unverified. It deletes nothing, so a later approve can reverse it.
func (s *adminService) RejectFarmer(ctx context.Context, adminID, targetUserID uuid.UUID, reason string) error {
	var user *model.User
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.lockFarmer(txCtx, targetUserID)
		if err != nil {
			return err
		}

		profile, err := s.farmers.GetProfileByUserIDForUpdate(txCtx, targetUserID)
		if err != nil {
			return ErrFarmerNotFound
		}

		user.Status = model.UserStatusInactive
		if err := s.users.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to deactivate account: %w", err)
		}

		profile.Status = model.FarmerStatusRejected
		if err := s.farmers.UpdateProfile(txCtx, profile); err != nil {
			return fmt.Errorf("failed to reject profile: %w", err)
		}

		if err := s.farmers.SetDocsVerified(txCtx, profile.ID, false); err != nil {
			return fmt.Errorf("failed to unverify documents: %w", err)
		}

		entry := &model.AdminAction{
			AdminID:    adminID,
			TargetID:   targetUserID,
			ActionType: model.ActionRejectFarmer,
		}
		if reason != "" {
			entry.Reason = &reason
		}
		return s.actions.Log(txCtx, entry)
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastEvent(ws.EventProfileRejected, map[string]string{"user_id": targetUserID.String()})
	if mailErr := s.mailer.SendApprovalNotice(ctx, user.Email, user.Name, false, reason); mailErr != nil {
		log.Printf("admin: failed to queue rejection email for %s: %v", user.Email, mailErr)
	}
	return nil
}

func (s *adminService) lockFarmer(ctx context.Context, targetUserID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmerNotFound
		}
		return nil, err
	}
	if user.Role != model.RoleFarmer {
		return nil, ErrFarmerNotFound
	}
	return user, nil
}

func (s *adminService) ListFarmers(ctx context.Context, status string, page, limit int) ([]FarmerModerationView, int64, error) {
	profiles, total, err := s.farmers.ListByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]FarmerModerationView, 0, len(profiles))
	for _, p := range profiles {
		view := FarmerModerationView{
			UserID:    p.UserID.String(),
			FarmerID:  p.ID.String(),
			Name:      p.User.Name,
			Email:     p.User.Email,
			FarmName:  p.FarmName,
			Status:    p.Status,
			City:      p.User.City,
			CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if docs, err := s.farmers.GetDocsByFarmerID(ctx, p.ID); err == nil {
			view.Docs = docs
		}
		views = append(views, view)
	}
	return views, total, nil
}

func (s *adminService) ListActions(ctx context.Context, page, limit int) ([]model.AdminAction, int64, error) {
	return s.actions.List(ctx, page, limit)
}

func (s *adminService) ListSettings(ctx context.Context) ([]model.PlatformSetting, error) {
	return s.settings.List(ctx)
}

func (s *adminService) UpdateSetting(ctx context.Context, adminID uuid.UUID, req UpdateSettingRequest) (*model.PlatformSetting, error) {
	setting := &model.PlatformSetting{
		Key:       req.Key,
		Value:     req.Value,
		UpdatedBy: &adminID,
	}
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.settings.Set(txCtx, setting); err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}
		return s.actions.Log(txCtx, &model.AdminAction{
			AdminID:    adminID,
			TargetID:   adminID,
			ActionType: model.ActionUpdateSetting,
			Reason:     &req.Key,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, req.Key)
}
