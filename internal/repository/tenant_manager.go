package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantManager struct {
	db *pgxpool.Pool
}

func NewTenantManager(db *pgxpool.Pool) *TenantManager {
	return &TenantManager{db: db}
}

// sanitizeSchemaName ensures schema name is safe for SQL
func sanitizeSchemaName(name string) string {
	reg := regexp.MustCompile("[^a-zA-Z0-9_]+")
	return strings.ToLower(reg.ReplaceAllString(name, "_"))
}

// CreateTenantSchema creates a per-user schema holding tenant-isolated
// conversation data.
func (t *TenantManager) CreateTenantSchema(userID int) (string, error) {
	ctx := context.Background()
	schemaName := fmt.Sprintf("tenant_%d", userID)

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	if err != nil {
		return "", fmt.Errorf("failed to create schema: %w", err)
	}

	tables := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.conversations (
				id SERIAL PRIMARY KEY,
				agent_id INT NOT NULL,
				contact VARCHAR(128) NOT NULL,
				inbound TEXT,
				outbound TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`, schemaName),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.agent_notes (
				id SERIAL PRIMARY KEY,
				agent_id INT NOT NULL,
				note TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`, schemaName),
	}

	for _, ddl := range tables {
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return "", fmt.Errorf("failed to create table: %w", err)
		}
	}

	return schemaName, tx.Commit(ctx)
}

// DropTenantSchema removes a user's schema and all data
func (t *TenantManager) DropTenantSchema(schemaName string) error {
	ctx := context.Background()
	schemaName = sanitizeSchemaName(schemaName)

	_, err := t.db.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
	return err
}
