package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bodacredit/loan-engine/internal/domain"
)

const riderColumns = `
	rider_id, full_name, phone_number, national_id, motorcycle_number,
	stage_location, status, created_at`

type riderRepository struct {
	db *sqlx.DB
}

func NewRiderRepository(db *sqlx.DB) RiderRepository {
	return &riderRepository{db: db}
}

func (r *riderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `
		INSERT INTO riders (full_name, phone_number, national_id, motorcycle_number, stage_location, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING rider_id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		rider.FullName,
		rider.PhoneNumber,
		rider.NationalID,
		rider.MotorcycleNumber,
		rider.StageLocation,
		rider.Status,
	)

	return row.Scan(&rider.RiderID, &rider.CreatedAt)
}

func (r *riderRepository) GetByID(ctx context.Context, riderID int64) (*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders WHERE rider_id = $1`

	var rider domain.Rider
	if err := r.db.GetContext(ctx, &rider, query, riderID); err != nil {
		return nil, err
	}

	return &rider, nil
}

func (r *riderRepository) GetByPhone(ctx context.Context, phoneNumber string) (*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders WHERE phone_number = $1`

	var rider domain.Rider
	if err := r.db.GetContext(ctx, &rider, query, phoneNumber); err != nil {
		return nil, err
	}

	return &rider, nil
}

func (r *riderRepository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, riderID int64) (*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders WHERE rider_id = $1 FOR UPDATE`

	var rider domain.Rider
	if err := sqlx.GetContext(ctx, q, &rider, query, riderID); err != nil {
		return nil, err
	}

	return &rider, nil
}

func (r *riderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	riders := []*domain.Rider{}
	if err := r.db.SelectContext(ctx, &riders, query, limit, offset); err != nil {
		return nil, err
	}

	return riders, nil
}

func (r *riderRepository) Search(ctx context.Context, search string) ([]*domain.Rider, error) {
	query := `
		SELECT ` + riderColumns + `
		FROM riders
		WHERE full_name ILIKE $1 OR phone_number ILIKE $1
		   OR national_id ILIKE $1 OR motorcycle_number ILIKE $1
		ORDER BY full_name
		LIMIT 50
	`

	riders := []*domain.Rider{}
	if err := r.db.SelectContext(ctx, &riders, query, "%"+search+"%"); err != nil {
		return nil, err
	}

	return riders, nil
}

func (r *riderRepository) Update(ctx context.Context, rider *domain.Rider) error {
	query := `
		UPDATE riders
		SET full_name = $2, phone_number = $3, national_id = $4,
		    motorcycle_number = $5, stage_location = $6
		WHERE rider_id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		rider.RiderID,
		rider.FullName,
		rider.PhoneNumber,
		rider.NationalID,
		rider.MotorcycleNumber,
		rider.StageLocation,
	)

	return err
}

func (r *riderRepository) UpdateStatus(ctx context.Context, riderID int64, status string) error {
	query := `UPDATE riders SET status = $2 WHERE rider_id = $1`

	_, err := r.db.ExecContext(ctx, query, riderID, status)
	return err
}

func (r *riderRepository) SuspendOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	// Touches rider rows only; never takes loan locks, preserving the
	// rider-before-loan lock order used at creation.
	query := `
		UPDATE riders SET status = 'SUSPENDED'
		WHERE rider_id IN (
			SELECT DISTINCT rider_id FROM loans
			WHERE status = 'OVERDUE' AND due_at < $1
		) AND status = 'ACTIVE'
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
