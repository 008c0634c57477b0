package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bodacredit/loan-engine/internal/domain"
	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

func TestCreateRiderDefaultsToActive(t *testing.T) {
	riderRepo := new(MockRiderRepository)
	riderRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Rider) bool {
		return r.Status == domain.RiderStatusActive && r.PhoneNumber == "256772123456"
	})).Return(nil)

	svc := NewRiderService(riderRepo)

	rider, err := svc.CreateRider(context.Background(), &domain.CreateRiderRequest{
		FullName:    "Okello James",
		PhoneNumber: "256772123456",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RiderStatusActive, rider.Status)
	riderRepo.AssertExpectations(t)
}

func TestGetRiderByIDNotFound(t *testing.T) {
	riderRepo := new(MockRiderRepository)
	riderRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, sql.ErrNoRows)

	svc := NewRiderService(riderRepo)

	_, err := svc.GetRiderByID(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrRiderNotFound)
}

func TestListRidersClampsLimit(t *testing.T) {
	riderRepo := new(MockRiderRepository)
	riderRepo.On("List", mock.Anything, 100, 0).Return([]*domain.Rider{}, nil)

	svc := NewRiderService(riderRepo)

	_, err := svc.ListRiders(context.Background(), 10_000, -5)
	assert.NoError(t, err)
	riderRepo.AssertExpectations(t)
}

func TestUpdateRiderStatus(t *testing.T) {
	riderRepo := new(MockRiderRepository)
	riderRepo.On("GetByID", mock.Anything, int64(5)).Return(&domain.Rider{RiderID: 5, Status: domain.RiderStatusSuspended}, nil)
	riderRepo.On("UpdateStatus", mock.Anything, int64(5), domain.RiderStatusActive).Return(nil)

	svc := NewRiderService(riderRepo)

	rider, err := svc.UpdateRiderStatus(context.Background(), 5, domain.RiderStatusActive)
	assert.NoError(t, err)
	assert.Equal(t, domain.RiderStatusActive, rider.Status)
	riderRepo.AssertExpectations(t)
}
