package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Users Table (profiles live here: role/plan/role type + settings blob)
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			plan VARCHAR(20) DEFAULT 'free',
			user_role_type VARCHAR(20) DEFAULT 'geral',
			schema_name VARCHAR(64) DEFAULT '',
			is_active BOOLEAN DEFAULT TRUE,
			agent_settings JSONB DEFAULT '{"onboarding_completed": false}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// Agents Table
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS agents (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(128) NOT NULL,
			kind VARCHAR(20) NOT NULL,
			channel VARCHAR(20) NOT NULL,
			webhook_url TEXT DEFAULT '',
			system_prompt TEXT DEFAULT '',
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create agents table: %w", err)
	}

	// Integrations Table (n8n / telegram / snmp endpoint configs)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS integrations (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL,
			name VARCHAR(128) NOT NULL,
			config JSONB DEFAULT '{}',
			enabled BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create integrations table: %w", err)
	}

	// Invoices Table
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS invoices (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			plan VARCHAR(20) NOT NULL,
			amount_cents BIGINT NOT NULL,
			currency VARCHAR(10) DEFAULT 'BRL',
			method VARCHAR(10) NOT NULL,
			status VARCHAR(10) DEFAULT 'pending',
			pix_payload TEXT DEFAULT '',
			boleto_line TEXT DEFAULT '',
			due_date TIMESTAMP NOT NULL,
			paid_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create invoices table: %w", err)
	}

	// Per-agent daily traffic counters
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS agent_usage (
			agent_id INT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			messages_in INT DEFAULT 0,
			messages_out INT DEFAULT 0,
			PRIMARY KEY (agent_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("create agent_usage table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
