package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"milkeyway/internal/mailer"
	"milkeyway/internal/model"
	"milkeyway/internal/repository"
	ws "milkeyway/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrRequestNotFound   = errors.New("connection request not found")
	ErrNotYourRequest    = errors.New("request does not belong to this farmer")
	ErrRequestClosed     = errors.New("request has already been responded to")
	ErrDuplicateRequest  = errors.New("a pending request for this product already exists")
	ErrFarmerNotApproved = errors.New("farmer is not approved for connections")
	ErrInvalidAction     = errors.New("action must be accept or reject")
)

// --- DTOs ---

type SendRequestDTO struct {
	FarmerID        string `json:"farmer_id" binding:"required"`
	ProductInterest string `json:"product_interest" binding:"required"`
	Quantity        string `json:"quantity" binding:"required"`
	Message         string `json:"message"`
}

type RespondRequestDTO struct {
	Action          string `json:"action" binding:"required,oneof=accept reject"`
	ResponseMessage string `json:"response_message"`
}

type RequestResponse struct {
	ID              string  `json:"id"`
	FarmerID        string  `json:"farmer_id"`
	ConsumerID      string  `json:"consumer_id"`
	Status          string  `json:"status"`
	ProductInterest string  `json:"product_interest"`
	Quantity        string  `json:"quantity"`
	Message         string  `json:"message"`
	FarmerResponse  string  `json:"farmer_response"`
	ResponseAt      *string `json:"response_at"`
	CreatedAt       string  `json:"created_at"`
}

// ConnectionService owns the consumer-to-farmer request lifecycle and the
// materialized connections accepted requests produce.
type ConnectionService interface {
	SendRequest(ctx context.Context, consumerUserID uuid.UUID, req SendRequestDTO) (*RequestResponse, error)
	RespondToRequest(ctx context.Context, farmerUserID, requestID uuid.UUID, req RespondRequestDTO) (*RequestResponse, error)
	ListFarmerRequests(ctx context.Context, farmerUserID uuid.UUID, status string, page, limit int) ([]RequestResponse, int64, error)
	ListConsumerRequests(ctx context.Context, consumerUserID uuid.UUID, status string, page, limit int) ([]RequestResponse, int64, error)
	ListConnections(ctx context.Context, userID uuid.UUID, role string) ([]model.Connection, error)
}

type connectionService struct {
	farmers   repository.FarmerRepository
	consumers repository.ConsumerRepository
	requests  repository.RequestRepository
	users     repository.UserRepository
	txm       repository.TransactionManager
	mailer    mailer.Mailer
	hub       *ws.Hub
}

func NewConnectionService(
	farmers repository.FarmerRepository,
	consumers repository.ConsumerRepository,
	requests repository.RequestRepository,
	users repository.UserRepository,
	txm repository.TransactionManager,
	m mailer.Mailer,
	hub *ws.Hub,
) ConnectionService {
	return &connectionService{
		farmers:   farmers,
		consumers: consumers,
		requests:  requests,
		users:     users,
		txm:       txm,
		mailer:    m,
		hub:       hub,
	}
}

// SendRequest creates a pending request from the consumer to an approved
// farmer. A second pending request to the same farmer for the same product
// interest is rejected; different product interests may coexist.
func (s *connectionService) SendRequest(ctx context.Context, consumerUserID uuid.UUID, req SendRequestDTO) (*RequestResponse, error) {
	farmerID, err := uuid.Parse(req.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("invalid farmer_id: %w", err)
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || quantity.IsNegative() || quantity.IsZero() {
		return nil, fmt.Errorf("invalid quantity %q", req.Quantity)
	}

	consumer, err := s.consumers.GetProfileByUserID(ctx, consumerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	farmer, err := s.farmers.GetProfileByID(ctx, farmerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmerNotFound
		}
		return nil, err
	}
	if farmer.Status != model.FarmerStatusApproved {
		return nil, ErrFarmerNotApproved
	}

	var request *model.FarmerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		duplicate, err := s.requests.HasPendingDuplicate(txCtx, consumer.ID, farmer.ID, req.ProductInterest)
		if err != nil {
			return err
		}
		if duplicate {
			return ErrDuplicateRequest
		}

		request = &model.FarmerRequest{
			FarmerID:        farmer.ID,
			ConsumerID:      consumer.ID,
			Status:          model.RequestStatusPending,
			ProductInterest: req.ProductInterest,
			Quantity:        quantity,
			Message:         req.Message,
		}
		return s.requests.Create(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(ws.EventRequestCreated, map[string]string{
		"request_id": request.ID.String(),
		"farmer_id":  farmer.ID.String(),
	})
	s.notifyFarmer(ctx, farmer, req.ProductInterest)

	return toRequestResponse(request), nil
}

// RespondToRequest applies the single allowed transition on a pending
// request. The row is locked for the duration, so a concurrent second respond
// observes the closed status and fails. Accepting materializes the connection
// idempotently.
func (s *connectionService) RespondToRequest(ctx context.Context, farmerUserID, requestID uuid.UUID, req RespondRequestDTO) (*RequestResponse, error) {
	if req.Action != "accept" && req.Action != "reject" {
		return nil, ErrInvalidAction
	}

	farmer, err := s.farmers.GetProfileByUserID(ctx, farmerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var request *model.FarmerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		request, err = s.requests.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if request.FarmerID != farmer.ID {
			return ErrNotYourRequest
		}
		if request.Status != model.RequestStatusPending {
			return ErrRequestClosed
		}

		now := time.Now()
		request.FarmerResponse = req.ResponseMessage
		request.ResponseAt = &now
		if req.Action == "accept" {
			request.Status = model.RequestStatusAccepted
		} else {
			request.Status = model.RequestStatusRejected
		}
		if err := s.requests.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		if request.Status == model.RequestStatusAccepted {
			if _, err := s.requests.EnsureConnection(txCtx, request.FarmerID, request.ConsumerID); err != nil {
				return fmt.Errorf("failed to materialize connection: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(ws.EventRequestResponded, map[string]string{
		"request_id": request.ID.String(),
		"status":     request.Status,
	})
	return toRequestResponse(request), nil
}

func (s *connectionService) ListFarmerRequests(ctx context.Context, farmerUserID uuid.UUID, status string, page, limit int) ([]RequestResponse, int64, error) {
	farmer, err := s.farmers.GetProfileByUserID(ctx, farmerUserID)
	if err != nil {
		return nil, 0, ErrProfileNotFound
	}
	requests, total, err := s.requests.ListByFarmer(ctx, farmer.ID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toRequestResponses(requests), total, nil
}

func (s *connectionService) ListConsumerRequests(ctx context.Context, consumerUserID uuid.UUID, status string, page, limit int) ([]RequestResponse, int64, error) {
	consumer, err := s.consumers.GetProfileByUserID(ctx, consumerUserID)
	if err != nil {
		return nil, 0, ErrProfileNotFound
	}
	requests, total, err := s.requests.ListByConsumer(ctx, consumer.ID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toRequestResponses(requests), total, nil
}

func (s *connectionService) ListConnections(ctx context.Context, userID uuid.UUID, role string) ([]model.Connection, error) {
	switch role {
	case model.RoleFarmer:
		farmer, err := s.farmers.GetProfileByUserID(ctx, userID)
		if err != nil {
			return nil, ErrProfileNotFound
		}
		return s.requests.ListConnectionsByFarmer(ctx, farmer.ID)
	case model.RoleConsumer:
		consumer, err := s.consumers.GetProfileByUserID(ctx, userID)
		if err != nil {
			return nil, ErrProfileNotFound
		}
		return s.requests.ListConnectionsByConsumer(ctx, consumer.ID)
	default:
		return nil, ErrWrongRole
	}
}

func (s *connectionService) notifyFarmer(ctx context.Context, farmer *model.FarmerProfile, productInterest string) {
	user, err := s.users.GetByID(ctx, farmer.UserID)
	if err != nil {
		return
	}
	if mailErr := s.mailer.SendRequestNotice(ctx, user.Email, farmer.FarmName, productInterest); mailErr != nil {
		log.Printf("connection: failed to queue request email for %s: %v", user.Email, mailErr)
	}
}

// --- Helpers ---

func toRequestResponse(r *model.FarmerRequest) *RequestResponse {
	resp := &RequestResponse{
		ID:              r.ID.String(),
		FarmerID:        r.FarmerID.String(),
		ConsumerID:      r.ConsumerID.String(),
		Status:          r.Status,
		ProductInterest: r.ProductInterest,
		Quantity:        r.Quantity.String(),
		Message:         r.Message,
		FarmerResponse:  r.FarmerResponse,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.ResponseAt != nil {
		s := r.ResponseAt.Format(time.RFC3339)
		resp.ResponseAt = &s
	}
	return resp
}

func toRequestResponses(requests []model.FarmerRequest) []RequestResponse {
	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, *toRequestResponse(&requests[i]))
	}
	return result
}
