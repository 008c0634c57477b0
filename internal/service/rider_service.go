package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/repository"
	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

// RiderService is the rider directory: profile CRUD and status changes.
// Loan eligibility reads rider status through the loan creation path, not
// through this service.
type RiderService struct {
	riderRepo repository.RiderRepository
}

func NewRiderService(riderRepo repository.RiderRepository) *RiderService {
	return &RiderService{riderRepo: riderRepo}
}

func (s *RiderService) CreateRider(ctx context.Context, request *domain.CreateRiderRequest) (*domain.Rider, error) {
	rider := &domain.Rider{
		FullName:         request.FullName,
		PhoneNumber:      request.PhoneNumber,
		NationalID:       request.NationalID,
		MotorcycleNumber: request.MotorcycleNumber,
		StageLocation:    request.StageLocation,
		Status:           domain.RiderStatusActive,
	}

	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return rider, nil
}

func (s *RiderService) GetRiderByID(ctx context.Context, riderID int64) (*domain.Rider, error) {
	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapRiderNotFound(riderID)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}
	return rider, nil
}

func (s *RiderService) ListRiders(ctx context.Context, limit, offset int) ([]*domain.Rider, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	riders, err := s.riderRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return riders, nil
}

func (s *RiderService) SearchRiders(ctx context.Context, query string) ([]*domain.Rider, error) {
	riders, err := s.riderRepo.Search(ctx, query)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return riders, nil
}

func (s *RiderService) UpdateRider(ctx context.Context, riderID int64, request *domain.UpdateRiderRequest) (*domain.Rider, error) {
	rider, err := s.GetRiderByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	if request.FullName != nil {
		rider.FullName = *request.FullName
	}
	if request.PhoneNumber != nil {
		rider.PhoneNumber = *request.PhoneNumber
	}
	if request.NationalID != nil {
		rider.NationalID = request.NationalID
	}
	if request.MotorcycleNumber != nil {
		rider.MotorcycleNumber = request.MotorcycleNumber
	}
	if request.StageLocation != nil {
		rider.StageLocation = request.StageLocation
	}

	if err := s.riderRepo.Update(ctx, rider); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return rider, nil
}

func (s *RiderService) UpdateRiderStatus(ctx context.Context, riderID int64, status string) (*domain.Rider, error) {
	rider, err := s.GetRiderByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	if err := s.riderRepo.UpdateStatus(ctx, riderID, status); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	rider.Status = status
	return rider, nil
}
