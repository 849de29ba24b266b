package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UsageRepository struct {
	db *pgxpool.Pool
}

type DailyUsage struct {
	Date        time.Time `json:"date"`
	MessagesIn  int       `json:"messages_in"`
	MessagesOut int       `json:"messages_out"`
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

// IncrementIn bumps today's inbound counter for an agent.
func (r *UsageRepository) IncrementIn(agentID int) error {
	today := time.Now().Format("2006-01-02")
	_, err := r.db.Exec(context.Background(), `
		INSERT INTO agent_usage (agent_id, date, messages_in, messages_out)
		VALUES ($1, $2, 1, 0)
		ON CONFLICT (agent_id, date)
		DO UPDATE SET messages_in = agent_usage.messages_in + 1
	`, agentID, today)
	return err
}

// IncrementOut bumps today's outbound counter for an agent.
func (r *UsageRepository) IncrementOut(agentID int) error {
	today := time.Now().Format("2006-01-02")
	_, err := r.db.Exec(context.Background(), `
		INSERT INTO agent_usage (agent_id, date, messages_in, messages_out)
		VALUES ($1, $2, 0, 1)
		ON CONFLICT (agent_id, date)
		DO UPDATE SET messages_out = agent_usage.messages_out + 1
	`, agentID, today)
	return err
}

// GetHistory returns the last N days of usage for an agent, oldest first.
func (r *UsageRepository) GetHistory(agentID, days int) ([]DailyUsage, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := r.db.Query(context.Background(), `
		SELECT date, messages_in, messages_out
		FROM agent_usage
		WHERE agent_id = $1 AND date >= $2
		ORDER BY date ASC
	`, agentID, startDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := []DailyUsage{}
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.MessagesIn, &u.MessagesOut); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// GetUserTotals sums this month's traffic across all of a user's agents.
func (r *UsageRepository) GetUserTotals(userID int) (in, out int, err error) {
	firstOfMonth := time.Now().Format("2006-01") + "-01"
	err = r.db.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(u.messages_in), 0), COALESCE(SUM(u.messages_out), 0)
		FROM agent_usage u
		JOIN agents a ON a.id = u.agent_id
		WHERE a.user_id = $1 AND u.date >= $2
	`, userID, firstOfMonth).Scan(&in, &out)
	return in, out, err
}
