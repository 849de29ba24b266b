package repository

import (
	"context"
	"encoding/json"

	"ispagents/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IntegrationRepository struct {
	db *pgxpool.Pool
}

func NewIntegrationRepository(db *pgxpool.Pool) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Create(in *entities.Integration) error {
	config, err := json.Marshal(in.Config)
	if err != nil {
		return err
	}
	return r.db.QueryRow(context.Background(), `
		INSERT INTO integrations (user_id, kind, name, config, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, in.UserID, in.Kind, in.Name, config, in.Enabled).Scan(&in.ID, &in.CreatedAt)
}

func (r *IntegrationRepository) GetByID(id int) (*entities.Integration, error) {
	var in entities.Integration
	var config []byte
	err := r.db.QueryRow(context.Background(), `
		SELECT id, user_id, kind, name, config, enabled, created_at
		FROM integrations WHERE id = $1
	`, id).Scan(&in.ID, &in.UserID, &in.Kind, &in.Name, &config, &in.Enabled, &in.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &in.Config); err != nil {
			return nil, err
		}
	}
	return &in, nil
}

func (r *IntegrationRepository) ListByUser(userID int) ([]entities.Integration, error) {
	rows, err := r.db.Query(context.Background(), `
		SELECT id, user_id, kind, name, config, enabled, created_at
		FROM integrations WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []entities.Integration{}
	for rows.Next() {
		var in entities.Integration
		var config []byte
		if err := rows.Scan(&in.ID, &in.UserID, &in.Kind, &in.Name, &config,
			&in.Enabled, &in.CreatedAt); err != nil {
			return nil, err
		}
		if len(config) > 0 {
			if err := json.Unmarshal(config, &in.Config); err != nil {
				return nil, err
			}
		}
		items = append(items, in)
	}
	return items, rows.Err()
}

func (r *IntegrationRepository) Update(in *entities.Integration) error {
	config, err := json.Marshal(in.Config)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(context.Background(), `
		UPDATE integrations SET name=$1, config=$2, enabled=$3 WHERE id=$4 AND user_id=$5
	`, in.Name, config, in.Enabled, in.ID, in.UserID)
	return err
}

func (r *IntegrationRepository) Delete(userID, id int) error {
	_, err := r.db.Exec(context.Background(),
		"DELETE FROM integrations WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
