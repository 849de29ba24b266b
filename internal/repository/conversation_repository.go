package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	db *pgxpool.Pool
}

type ConversationEntry struct {
	ID        int       `json:"id"`
	AgentID   int       `json:"agent_id"`
	Contact   string    `json:"contact"`
	Inbound   string    `json:"inbound"`
	Outbound  string    `json:"outbound"`
	CreatedAt time.Time `json:"created_at"`
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// qualifyTable returns the schema-qualified conversations table.
func qualifyTable(schema, table string) string {
	if schema == "" || schema == "public" {
		return table
	}
	return fmt.Sprintf("%s.%s", sanitizeSchemaName(schema), table)
}

// LogExchange stores one inbound/outbound pair in the tenant schema.
func (r *ConversationRepository) LogExchange(schemaName string, agentID int, contact, inbound, outbound string) error {
	table := qualifyTable(schemaName, "conversations")
	_, err := r.db.Exec(context.Background(), fmt.Sprintf(`
		INSERT INTO %s (agent_id, contact, inbound, outbound) VALUES ($1, $2, $3, $4)
	`, table), agentID, contact, inbound, outbound)
	return err
}

// ListRecent returns the newest entries for an agent, newest first.
func (r *ConversationRepository) ListRecent(schemaName string, agentID, limit int) ([]ConversationEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	table := qualifyTable(schemaName, "conversations")
	rows, err := r.db.Query(context.Background(), fmt.Sprintf(`
		SELECT id, agent_id, contact, inbound, outbound, created_at
		FROM %s WHERE agent_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, table), agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []ConversationEntry{}
	for rows.Next() {
		var e ConversationEntry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Contact, &e.Inbound, &e.Outbound, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
