package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrInviteNotFound     = errors.New("invite not found")
	ErrInviteExists       = errors.New("an invite for this email is already pending")
	ErrAlreadyMember      = errors.New("user is already a member of your team")
	ErrCannotInviteSelf   = errors.New("you cannot invite yourself")
)

// MemberTerms are the rate, currency and approver flag carried by an edge or invite.
type MemberTerms struct {
	HourlyRate float64
	Currency   string
	IsApprover bool
}

// MemberUpdate carries the optional fields of PATCH /team/members/:memberId.
type MemberUpdate struct {
	HourlyRate *float64
	Currency   *string
	IsApprover *bool
}

type TeamService struct {
	db *database.DB
}

func NewTeamService(db *database.DB) *TeamService {
	return &TeamService{db: db}
}

const memberSelect = `
	SELECT tm.id, tm.leader_id, tm.member_id, tm.hourly_rate, tm.currency, tm.is_approver,
	       tm.created_at, tm.updated_at,
	       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
	FROM team_members tm`

func scanMember(row pgx.Row) (*models.TeamMember, error) {
	var m models.TeamMember
	var u models.User
	if err := row.Scan(
		&m.ID, &m.LeaderID, &m.MemberID, &m.HourlyRate, &m.Currency, &m.IsApprover,
		&m.CreatedAt, &m.UpdatedAt,
		&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.User = &u
	return &m, nil
}

func (s *TeamService) collectMembers(rows pgx.Rows) ([]models.TeamMember, error) {
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListMembers returns the leader's team; User is the member.
func (s *TeamService) ListMembers(ctx context.Context, leaderID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := s.db.Pool.Query(ctx, memberSelect+`
		JOIN users u ON tm.member_id = u.id
		WHERE tm.leader_id = $1
		ORDER BY u.name
	`, leaderID)
	if err != nil {
		return nil, err
	}
	return s.collectMembers(rows)
}

// ListLeaders returns the teams the user belongs to; User is the leader.
func (s *TeamService) ListLeaders(ctx context.Context, memberID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := s.db.Pool.Query(ctx, memberSelect+`
		JOIN users u ON tm.leader_id = u.id
		WHERE tm.member_id = $1
		ORDER BY u.name
	`, memberID)
	if err != nil {
		return nil, err
	}
	return s.collectMembers(rows)
}

func (s *TeamService) GetMember(ctx context.Context, leaderID, memberID uuid.UUID) (*models.TeamMember, error) {
	m, err := scanMember(s.db.Pool.QueryRow(ctx, memberSelect+`
		JOIN users u ON tm.member_id = u.id
		WHERE tm.leader_id = $1 AND tm.member_id = $2
	`, leaderID, memberID))
	if err != nil {
		return nil, notFound(err, ErrTeamMemberNotFound)
	}
	return m, nil
}

func (s *TeamService) UpdateMember(ctx context.Context, leaderID, memberID uuid.UUID, upd MemberUpdate) (*models.TeamMember, error) {
	var currency *string
	if upd.Currency != nil {
		c := strings.ToUpper(*upd.Currency)
		currency = &c
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE team_members SET
			hourly_rate = COALESCE($1, hourly_rate),
			currency = COALESCE($2, currency),
			is_approver = COALESCE($3, is_approver),
			updated_at = NOW()
		WHERE leader_id = $4 AND member_id = $5
	`, upd.HourlyRate, currency, upd.IsApprover, leaderID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to update team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrTeamMemberNotFound
	}
	return s.GetMember(ctx, leaderID, memberID)
}

// RemoveMember deletes the edge and the member's assignments on the leader's projects.
func (s *TeamService) RemoveMember(ctx context.Context, leaderID, memberID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM team_members WHERE leader_id = $1 AND member_id = $2`, leaderID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamMemberNotFound
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM project_members pm
		USING projects p
		WHERE pm.project_id = p.id AND p.user_id = $1 AND pm.user_id = $2
	`, leaderID, memberID); err != nil {
		return fmt.Errorf("failed to remove project assignments: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *TeamService) IsMember(ctx context.Context, leaderID, memberID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM team_members WHERE leader_id = $1 AND member_id = $2)
	`, leaderID, memberID).Scan(&exists)
	return exists, err
}

// AreTeammates reports whether a and b are joined by an edge in either direction or
// belong to the same leader.
func (s *TeamService) AreTeammates(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return areTeammates(ctx, s.db.Pool, a, b)
}

func areTeammates(ctx context.Context, q querier, a, b uuid.UUID) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_members
			WHERE (leader_id = $1 AND member_id = $2) OR (leader_id = $2 AND member_id = $1)
		) OR EXISTS(
			SELECT 1 FROM team_members x
			JOIN team_members y ON x.leader_id = y.leader_id
			WHERE x.member_id = $1 AND y.member_id = $2
		)
	`, a, b).Scan(&ok)
	return ok, err
}

const inviteColumns = `id, leader_id, email, hourly_rate, currency, is_approver, status, created_at, updated_at`

func scanInvite(row pgx.Row, inv *models.TeamInvite) error {
	return row.Scan(
		&inv.ID, &inv.LeaderID, &inv.Email, &inv.HourlyRate, &inv.Currency,
		&inv.IsApprover, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
}

// CreateInvite records a pending invite. A previously declined or accepted invite to
// the same address is reopened with the new terms.
func (s *TeamService) CreateInvite(ctx context.Context, leader *models.User, email string, terms MemberTerms) (*models.TeamInvite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.EqualFold(email, leader.Email) {
		return nil, ErrCannotInviteSelf
	}

	var already bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_members tm
			JOIN users u ON u.id = tm.member_id
			WHERE tm.leader_id = $1 AND LOWER(u.email) = $2
		)
	`, leader.ID, email).Scan(&already); err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if already {
		return nil, ErrAlreadyMember
	}

	var inv models.TeamInvite
	err := scanInvite(s.db.Pool.QueryRow(ctx, `
		INSERT INTO team_invites (leader_id, email, hourly_rate, currency, is_approver)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (leader_id, email) DO UPDATE SET
			hourly_rate = EXCLUDED.hourly_rate,
			currency = EXCLUDED.currency,
			is_approver = EXCLUDED.is_approver,
			status = 'pending',
			updated_at = NOW()
		WHERE team_invites.status <> 'pending'
		RETURNING `+inviteColumns,
		leader.ID, email, terms.HourlyRate, strings.ToUpper(terms.Currency), terms.IsApprover), &inv)
	if err != nil {
		return nil, notFound(err, ErrInviteExists)
	}
	return &inv, nil
}

// ListInvitesForEmail returns pending invites addressed to email with the inviting leader.
func (s *TeamService) ListInvitesForEmail(ctx context.Context, email string) ([]models.TeamInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.leader_id, i.email, i.hourly_rate, i.currency, i.is_approver, i.status,
		       i.created_at, i.updated_at,
		       u.id, u.email, u.name, u.avatar_url
		FROM team_invites i
		JOIN users u ON u.id = i.leader_id
		WHERE LOWER(i.email) = LOWER($1) AND i.status = 'pending'
		ORDER BY i.created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []models.TeamInvite{}
	for rows.Next() {
		var inv models.TeamInvite
		var leader models.User
		if err := rows.Scan(
			&inv.ID, &inv.LeaderID, &inv.Email, &inv.HourlyRate, &inv.Currency, &inv.IsApprover, &inv.Status,
			&inv.CreatedAt, &inv.UpdatedAt,
			&leader.ID, &leader.Email, &leader.Name, &leader.AvatarURL,
		); err != nil {
			return nil, err
		}
		inv.Leader = &leader
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (s *TeamService) ListSentInvites(ctx context.Context, leaderID uuid.UUID) ([]models.TeamInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+inviteColumns+` FROM team_invites
		WHERE leader_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, leaderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []models.TeamInvite{}
	for rows.Next() {
		var inv models.TeamInvite
		if err := scanInvite(rows, &inv); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// AcceptInvite turns a pending invite addressed to user into a team edge.
func (s *TeamService) AcceptInvite(ctx context.Context, inviteID uuid.UUID, user *models.User) (*models.TeamInvite, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var inv models.TeamInvite
	err = scanInvite(tx.QueryRow(ctx, `
		SELECT `+inviteColumns+` FROM team_invites
		WHERE id = $1 AND LOWER(email) = LOWER($2) AND status = 'pending'
		FOR UPDATE
	`, inviteID, user.Email), &inv)
	if err != nil {
		return nil, notFound(err, ErrInviteNotFound)
	}
	if inv.LeaderID == user.ID {
		return nil, ErrCannotInviteSelf
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO team_members (leader_id, member_id, hourly_rate, currency, is_approver)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (leader_id, member_id) DO NOTHING
	`, inv.LeaderID, user.ID, inv.HourlyRate, inv.Currency, inv.IsApprover); err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE team_invites SET status = 'accepted', updated_at = NOW() WHERE id = $1
	`, inv.ID); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	inv.Status = models.InviteStatusAccepted
	return &inv, nil
}

func (s *TeamService) DeclineInvite(ctx context.Context, inviteID uuid.UUID, email string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE team_invites SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND LOWER(email) = LOWER($2) AND status = 'pending'
	`, inviteID, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

func (s *TeamService) CancelInvite(ctx context.Context, inviteID, leaderID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM team_invites WHERE id = $1 AND leader_id = $2 AND status = 'pending'
	`, inviteID, leaderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}
