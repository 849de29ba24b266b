package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ispagents/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *entities.User) error {
	return r.db.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash, role, plan, user_role_type, schema_name, is_active, agent_settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '{"onboarding_completed": false}')
		RETURNING id, created_at
	`, user.Email, user.PasswordHash, user.Role, user.Plan, user.UserRoleType, user.SchemaName, user.IsActive).
		Scan(&user.ID, &user.CreatedAt)
}

func (r *UserRepository) GetByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.QueryRow(context.Background(), `
		SELECT id, email, password_hash, role, plan, user_role_type, schema_name, is_active, created_at
		FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.Plan,
		&user.UserRoleType, &user.SchemaName, &user.IsActive, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id int) (*entities.User, error) {
	var user entities.User
	err := r.db.QueryRow(context.Background(), `
		SELECT id, email, password_hash, role, plan, user_role_type, schema_name, is_active, created_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.Plan,
		&user.UserRoleType, &user.SchemaName, &user.IsActive, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateSchemaName(userID int, schema string) error {
	_, err := r.db.Exec(context.Background(),
		"UPDATE users SET schema_name = $1 WHERE id = $2", schema, userID)
	return err
}

func (r *UserRepository) UpdateUserStatus(userID int, isActive bool) error {
	_, err := r.db.Exec(context.Background(),
		"UPDATE users SET is_active = $1 WHERE id = $2", isActive, userID)
	return err
}

func (r *UserRepository) UpdatePlan(userID int, plan string) error {
	_, err := r.db.Exec(context.Background(),
		"UPDATE users SET plan = $1 WHERE id = $2", plan, userID)
	return err
}

func (r *UserRepository) UpdateRole(userID int, role string) error {
	_, err := r.db.Exec(context.Background(),
		"UPDATE users SET role = $1 WHERE id = $2", role, userID)
	return err
}

// GetProfile loads the access-control view of a user, splitting the
// agent_settings blob into the typed flag plus the open extras map.
func (r *UserRepository) GetProfile(ctx context.Context, userID int) (*entities.Profile, error) {
	var p entities.Profile
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, role, plan, user_role_type, agent_settings
		FROM users WHERE id = $1
	`, userID).Scan(&p.ID, &p.Role, &p.Plan, &p.UserRoleType, &raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.AgentSettings = decodeAgentSettings(raw)
	return &p, nil
}

// UpdateProfile applies a partial update; the extras map is merged into
// the existing agent_settings rather than replacing it.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int, update entities.ProfileUpdate) (*entities.Profile, error) {
	profile, err := r.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("repository: user %d not found", userID)
	}

	if update.Plan != nil {
		profile.Plan = *update.Plan
	}
	if update.UserRoleType != nil {
		profile.UserRoleType = *update.UserRoleType
	}
	if update.OnboardingCompleted != nil {
		profile.AgentSettings.OnboardingCompleted = *update.OnboardingCompleted
	}
	for k, v := range update.Extra {
		if profile.AgentSettings.Extra == nil {
			profile.AgentSettings.Extra = make(map[string]interface{})
		}
		profile.AgentSettings.Extra[k] = v
	}

	raw, err := encodeAgentSettings(profile.AgentSettings)
	if err != nil {
		return nil, err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE users SET plan = $1, user_role_type = $2, agent_settings = $3 WHERE id = $4
	`, profile.Plan, profile.UserRoleType, raw, userID)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

type PlatformStats struct {
	TotalUsers  int `json:"total_users"`
	ActiveUsers int `json:"active_users"`
	AdminCount  int `json:"admin_count"`
	PaidUsers   int `json:"paid_users"`
}

func (r *UserRepository) GetStats() (*PlatformStats, error) {
	var s PlatformStats
	err := r.db.QueryRow(context.Background(), `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE role = 'admin'),
		       COUNT(*) FILTER (WHERE plan <> 'free')
		FROM users
	`).Scan(&s.TotalUsers, &s.ActiveUsers, &s.AdminCount, &s.PaidUsers)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *UserRepository) GetAllUsers() ([]entities.User, error) {
	rows, err := r.db.Query(context.Background(), `
		SELECT id, email, role, plan, user_role_type, schema_name, is_active, created_at
		FROM users ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entities.User{}
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.Plan, &u.UserRoleType,
			&u.SchemaName, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func decodeAgentSettings(raw []byte) entities.AgentSettings {
	settings := entities.AgentSettings{}
	if len(raw) == 0 {
		return settings
	}
	extra := map[string]interface{}{}
	if err := json.Unmarshal(raw, &extra); err != nil {
		return settings
	}
	if done, ok := extra["onboarding_completed"].(bool); ok {
		settings.OnboardingCompleted = done
	}
	delete(extra, "onboarding_completed")
	if len(extra) > 0 {
		settings.Extra = extra
	}
	return settings
}

func encodeAgentSettings(settings entities.AgentSettings) ([]byte, error) {
	blob := map[string]interface{}{}
	for k, v := range settings.Extra {
		blob[k] = v
	}
	blob["onboarding_completed"] = settings.OnboardingCompleted
	return json.Marshal(blob)
}
