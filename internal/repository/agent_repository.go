package repository

import (
	"context"

	"ispagents/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentRepository struct {
	db *pgxpool.Pool
}

func NewAgentRepository(db *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) Create(agent *entities.Agent) error {
	return r.db.QueryRow(context.Background(), `
		INSERT INTO agents (user_id, name, kind, channel, webhook_url, system_prompt, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, agent.UserID, agent.Name, agent.Kind, agent.Channel, agent.WebhookURL,
		agent.SystemPrompt, agent.IsActive).Scan(&agent.ID, &agent.CreatedAt)
}

func (r *AgentRepository) GetByID(id int) (*entities.Agent, error) {
	var a entities.Agent
	err := r.db.QueryRow(context.Background(), `
		SELECT id, user_id, name, kind, channel, webhook_url, system_prompt, is_active, created_at
		FROM agents WHERE id = $1
	`, id).Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.Channel, &a.WebhookURL,
		&a.SystemPrompt, &a.IsActive, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActiveByChannel returns the user's active agent bound to a
// channel, used by inbound message routing.
func (r *AgentRepository) GetActiveByChannel(userID int, channel string) (*entities.Agent, error) {
	var a entities.Agent
	err := r.db.QueryRow(context.Background(), `
		SELECT id, user_id, name, kind, channel, webhook_url, system_prompt, is_active, created_at
		FROM agents WHERE user_id = $1 AND channel = $2 AND is_active
		ORDER BY id LIMIT 1
	`, userID, channel).Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.Channel,
		&a.WebhookURL, &a.SystemPrompt, &a.IsActive, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepository) ListByUser(userID int) ([]entities.Agent, error) {
	rows, err := r.db.Query(context.Background(), `
		SELECT id, user_id, name, kind, channel, webhook_url, system_prompt, is_active, created_at
		FROM agents WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []entities.Agent{}
	for rows.Next() {
		var a entities.Agent
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.Channel,
			&a.WebhookURL, &a.SystemPrompt, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (r *AgentRepository) CountByUser(userID int) (int, error) {
	var count int
	err := r.db.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM agents WHERE user_id = $1", userID).Scan(&count)
	return count, err
}

func (r *AgentRepository) Update(agent *entities.Agent) error {
	_, err := r.db.Exec(context.Background(), `
		UPDATE agents SET name=$1, kind=$2, channel=$3, webhook_url=$4, system_prompt=$5, is_active=$6
		WHERE id=$7
	`, agent.Name, agent.Kind, agent.Channel, agent.WebhookURL, agent.SystemPrompt,
		agent.IsActive, agent.ID)
	return err
}

func (r *AgentRepository) Delete(id int) error {
	_, err := r.db.Exec(context.Background(), "DELETE FROM agents WHERE id = $1", id)
	return err
}
