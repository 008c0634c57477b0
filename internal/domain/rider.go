package domain

import "time"

const (
	RiderStatusActive      = "ACTIVE"
	RiderStatusSuspended   = "SUSPENDED"
	RiderStatusBlacklisted = "BLACKLISTED"
)

// Rider is a boda-boda rider eligible for fuel loans. Only ACTIVE riders
// may be issued a loan; riders overdue past the suspension cutoff are
// moved to SUSPENDED by the accrual sweep.
type Rider struct {
	RiderID          int64     `json:"rider_id" db:"rider_id"`
	FullName         string    `json:"full_name" db:"full_name"`
	PhoneNumber      string    `json:"phone_number" db:"phone_number"`
	NationalID       *string   `json:"national_id" db:"national_id"`
	MotorcycleNumber *string   `json:"motorcycle_number" db:"motorcycle_number"`
	StageLocation    *string   `json:"stage_location" db:"stage_location"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type CreateRiderRequest struct {
	FullName         string  `json:"full_name" validate:"required"`
	PhoneNumber      string  `json:"phone_number" validate:"required"`
	NationalID       *string `json:"national_id"`
	MotorcycleNumber *string `json:"motorcycle_number"`
	StageLocation    *string `json:"stage_location"`
}

type UpdateRiderRequest struct {
	FullName         *string `json:"full_name"`
	PhoneNumber      *string `json:"phone_number"`
	NationalID       *string `json:"national_id"`
	MotorcycleNumber *string `json:"motorcycle_number"`
	StageLocation    *string `json:"stage_location"`
}

type UpdateRiderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED BLACKLISTED"`
}
