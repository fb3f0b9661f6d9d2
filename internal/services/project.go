package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrNotProjectOwner  = errors.New("only the project owner can do this")
	ErrNotTeamMember    = errors.New("user is not a member of your team")
	ErrProjectHasLogged = errors.New("project has invoiced time and cannot be deleted")
)

type ProjectParams struct {
	Name        string
	Description *string
	ClientID    *uuid.UUID
}

type ProjectMemberParams struct {
	UserID     uuid.UUID
	IsApprover bool
}

// ProjectAccess describes how a user relates to a project.
type ProjectAccess struct {
	OwnerID    uuid.UUID
	IsOwner    bool
	IsMember   bool
	IsApprover bool
}

func (a ProjectAccess) CanView() bool {
	return a.IsOwner || a.IsMember
}

type ProjectService struct {
	db *database.DB
}

func NewProjectService(db *database.DB) *ProjectService {
	return &ProjectService{db: db}
}

const projectColumns = `p.id, p.user_id, p.client_id, p.name, p.description, p.source, p.source_id, p.created_at, p.updated_at, c.name`

const projectFrom = ` FROM projects p LEFT JOIN clients c ON c.id = p.client_id`

func scanProject(row pgx.Row, p *models.Project) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.ClientID, &p.Name, &p.Description, &p.Source, &p.SourceID,
		&p.CreatedAt, &p.UpdatedAt, &p.ClientName,
	)
}

func projectAccess(ctx context.Context, q querier, projectID, userID uuid.UUID) (*ProjectAccess, error) {
	var a ProjectAccess
	var member, approver *bool
	err := q.QueryRow(ctx, `
		SELECT p.user_id, pm.user_id IS NOT NULL, pm.is_approver
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = $2
		WHERE p.id = $1
	`, projectID, userID).Scan(&a.OwnerID, &member, &approver)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	a.IsOwner = a.OwnerID == userID
	a.IsMember = member != nil && *member
	a.IsApprover = approver != nil && *approver
	return &a, nil
}

// Access reports the caller's relation to the project. Projects the caller can neither
// own nor see yield ErrProjectNotFound.
func (s *ProjectService) Access(ctx context.Context, projectID, userID uuid.UUID) (*ProjectAccess, error) {
	a, err := projectAccess(ctx, s.db.Pool, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !a.CanView() {
		return nil, ErrProjectNotFound
	}
	return a, nil
}

func (s *ProjectService) List(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+projectColumns+projectFrom+`
		WHERE p.user_id = $1
		   OR EXISTS(SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1)
		ORDER BY p.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *ProjectService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	if _, err := s.Access(ctx, id, userID); err != nil {
		return nil, err
	}

	var p models.Project
	if err := scanProject(s.db.Pool.QueryRow(ctx, `SELECT `+projectColumns+projectFrom+` WHERE p.id = $1`, id), &p); err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}

	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Members = members
	return &p, nil
}

// RequireOwner fails with ErrNotProjectOwner for members and ErrProjectNotFound for strangers.
func (s *ProjectService) RequireOwner(ctx context.Context, id, userID uuid.UUID) error {
	a, err := s.Access(ctx, id, userID)
	if err != nil {
		return err
	}
	if !a.IsOwner {
		return ErrNotProjectOwner
	}
	return nil
}

func (s *ProjectService) checkClient(ctx context.Context, clientID *uuid.UUID, userID uuid.UUID) error {
	if clientID == nil {
		return nil
	}
	var ok bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND user_id = $2)
	`, *clientID, userID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrClientNotFound
	}
	return nil
}

func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, params ProjectParams) (*models.Project, error) {
	if err := s.checkClient(ctx, params.ClientID, userID); err != nil {
		return nil, err
	}

	var id uuid.UUID
	if err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO projects (user_id, client_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, params.ClientID, params.Name, params.Description).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.Get(ctx, id, userID)
}

func (s *ProjectService) Update(ctx context.Context, id, userID uuid.UUID, params ProjectParams) (*models.Project, error) {
	if err := s.RequireOwner(ctx, id, userID); err != nil {
		return nil, err
	}
	if err := s.checkClient(ctx, params.ClientID, userID); err != nil {
		return nil, err
	}

	if _, err := s.db.Pool.Exec(ctx, `
		UPDATE projects SET name = $1, description = $2, client_id = $3, updated_at = NOW()
		WHERE id = $4
	`, params.Name, params.Description, params.ClientID, id); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return s.Get(ctx, id, userID)
}

func (s *ProjectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.RequireOwner(ctx, id, userID); err != nil {
		return err
	}

	var invoiced bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM invoice_items ii
			JOIN time_logs tl ON tl.id = ii.time_log_id
			WHERE tl.project_id = $1
		)
	`, id).Scan(&invoiced); err != nil {
		return err
	}
	if invoiced {
		return ErrProjectHasLogged
	}

	_, err := s.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (s *ProjectService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT pm.project_id, pm.user_id, pm.is_approver, u.id, u.email, u.name, u.avatar_url
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY u.name
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.ProjectMember{}
	for rows.Next() {
		var m models.ProjectMember
		var u models.User
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.IsApprover, &u.ID, &u.Email, &u.Name, &u.AvatarURL); err != nil {
			return nil, err
		}
		m.User = &u
		members = append(members, m)
	}
	return members, rows.Err()
}

// ReplaceMembers sets the project's assignments to exactly members. Every user must be on
// the owner's team.
func (s *ProjectService) ReplaceMembers(ctx context.Context, projectID, ownerID uuid.UUID, members []ProjectMemberParams) ([]models.ProjectMember, error) {
	if err := s.RequireOwner(ctx, projectID, ownerID); err != nil {
		return nil, err
	}

	unique := make(map[uuid.UUID]ProjectMemberParams, len(members))
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		if m.UserID == ownerID {
			continue
		}
		if _, seen := unique[m.UserID]; !seen {
			ids = append(ids, m.UserID)
		}
		unique[m.UserID] = m
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(ids) > 0 {
		var onTeam int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM team_members WHERE leader_id = $1 AND member_id = ANY($2)
		`, ownerID, ids).Scan(&onTeam); err != nil {
			return nil, fmt.Errorf("failed to check team membership: %w", err)
		}
		if onTeam != len(ids) {
			return nil, ErrNotTeamMember
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return nil, fmt.Errorf("failed to clear project members: %w", err)
	}

	if len(ids) > 0 {
		batch := &pgx.Batch{}
		for _, id := range ids {
			batch.Queue(`
				INSERT INTO project_members (project_id, user_id, is_approver) VALUES ($1, $2, $3)
			`, projectID, id, unique[id].IsApprover)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("failed to insert project members: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.ListMembers(ctx, projectID)
}

// ImportFromSource creates a project linked to an external repository or board. An
// existing project with the same source key is returned with created=false.
func (s *ProjectService) ImportFromSource(ctx context.Context, userID uuid.UUID, source, sourceID, name string, description *string) (*models.Project, bool, error) {
	var id uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO projects (user_id, name, description, source, source_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, source, source_id) DO NOTHING
		RETURNING id
	`, userID, name, description, source, sourceID).Scan(&id)
	created := true
	if errors.Is(err, pgx.ErrNoRows) {
		created = false
		err = s.db.Pool.QueryRow(ctx, `
			SELECT id FROM projects WHERE user_id = $1 AND source = $2 AND source_id = $3
		`, userID, source, sourceID).Scan(&id)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to import project: %w", err)
	}

	var p models.Project
	if err := scanProject(s.db.Pool.QueryRow(ctx, `SELECT `+projectColumns+projectFrom+` WHERE p.id = $1`, id), &p); err != nil {
		return nil, false, err
	}
	return &p, created, nil
}
