package postgres

import (
	"context"
	"database/sql"
	"time"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const profileColumns = `id, email, name, COALESCE(company_name, ''), role, COALESCE(push_token, ''), COALESCE(last_known_tier, 'bronze')`

func (r *userRepository) GetProfile(ctx context.Context, id int32) (*domain.Profile, error) {
	p := &domain.Profile{}
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Email, &p.Name, &p.CompanyName, &p.Role, &p.PushToken, &p.LastKnownTier)
	if err != nil {
		return nil, translate(err, "user", id)
	}
	return p, nil
}

func (r *userRepository) UpdateLastKnownTier(ctx context.Context, id int32, tier domain.MembershipTier) error {
	query := `UPDATE users SET last_known_tier = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, tier, time.Now(), id)
	return err
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE role = 'admin' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.CompanyName, &p.Role, &p.PushToken, &p.LastKnownTier); err != nil {
			return nil, err
		}
		admins = append(admins, p)
	}
	return admins, rows.Err()
}

func (r *userRepository) ListTeamMemberships(ctx context.Context, userID int32) ([]domain.TeamMember, error) {
	query := `SELECT team_id, user_id, role, status FROM team_members WHERE user_id = $1 AND status = 'active'`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.Status); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
