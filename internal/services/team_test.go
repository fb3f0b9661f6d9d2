package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var memberCols = []string{
	"id", "leader_id", "member_id", "hourly_rate", "currency", "is_approver", "created_at", "updated_at",
	"u_id", "email", "name", "avatar_url", "provider", "u_created_at", "u_updated_at",
}

var inviteCols = []string{
	"id", "leader_id", "email", "hourly_rate", "currency", "is_approver", "status", "created_at", "updated_at",
}

func setupTeamService(t *testing.T) (*TeamService, pgxmock.PgxPoolIface) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewTeamService(db), mock
}

func TestTeamService_ListMembers(t *testing.T) {
	svc, mock := setupTeamService(t)
	leaderID := uuid.New()
	memberID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM team_members tm JOIN users u ON tm.member_id = u.id WHERE tm.leader_id = \$1`).
		WithArgs(leaderID).
		WillReturnRows(pgxmock.NewRows(memberCols).
			AddRow(uuid.New(), leaderID, memberID, 40.0, "USD", true, now, now,
				memberID, "m@example.com", "Member", nil, "github", now, now))

	members, err := svc.ListMembers(context.Background(), leaderID)

	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, memberID, members[0].MemberID)
	assert.Equal(t, 40.0, members[0].HourlyRate)
	assert.True(t, members[0].IsApprover)
	assert.Equal(t, "Member", members[0].User.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_UpdateMember_NotFound(t *testing.T) {
	svc, mock := setupTeamService(t)
	leaderID, memberID := uuid.New(), uuid.New()
	approver := true

	mock.ExpectExec(`UPDATE team_members SET`).
		WithArgs((*float64)(nil), (*string)(nil), &approver, leaderID, memberID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := svc.UpdateMember(context.Background(), leaderID, memberID, MemberUpdate{IsApprover: &approver})

	assert.ErrorIs(t, err, ErrTeamMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_RemoveMember(t *testing.T) {
	svc, mock := setupTeamService(t)
	leaderID, memberID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM team_members`).
		WithArgs(leaderID, memberID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM project_members pm USING projects p`).
		WithArgs(leaderID, memberID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	require.NoError(t, svc.RemoveMember(context.Background(), leaderID, memberID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_CreateInvite_Self(t *testing.T) {
	svc, mock := setupTeamService(t)
	leader := &models.User{ID: uuid.New(), Email: "Lead@Example.com"}

	_, err := svc.CreateInvite(context.Background(), leader, " lead@example.com", MemberTerms{})

	assert.ErrorIs(t, err, ErrCannotInviteSelf)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_CreateInvite_AlreadyMember(t *testing.T) {
	svc, mock := setupTeamService(t)
	leader := &models.User{ID: uuid.New(), Email: "lead@example.com"}

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(leader.ID, "m@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.CreateInvite(context.Background(), leader, "M@example.com", MemberTerms{})

	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestTeamService_CreateInvite(t *testing.T) {
	svc, mock := setupTeamService(t)
	leader := &models.User{ID: uuid.New(), Email: "lead@example.com"}
	inviteID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(leader.ID, "m@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO team_invites .+ ON CONFLICT`).
		WithArgs(leader.ID, "m@example.com", 35.0, "EUR", true).
		WillReturnRows(pgxmock.NewRows(inviteCols).
			AddRow(inviteID, leader.ID, "m@example.com", 35.0, "EUR", true, models.InviteStatusPending, now, now))

	inv, err := svc.CreateInvite(context.Background(), leader, "m@example.com",
		MemberTerms{HourlyRate: 35, Currency: "eur", IsApprover: true})

	require.NoError(t, err)
	assert.Equal(t, inviteID, inv.ID)
	assert.Equal(t, models.InviteStatusPending, inv.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_CreateInvite_AlreadyPending(t *testing.T) {
	svc, mock := setupTeamService(t)
	leader := &models.User{ID: uuid.New(), Email: "lead@example.com"}

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(leader.ID, "m@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO team_invites`).
		WithArgs(leader.ID, "m@example.com", 0.0, "USD", false).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.CreateInvite(context.Background(), leader, "m@example.com", MemberTerms{Currency: "USD"})

	assert.ErrorIs(t, err, ErrInviteExists)
}

func TestTeamService_AcceptInvite(t *testing.T) {
	svc, mock := setupTeamService(t)
	user := &models.User{ID: uuid.New(), Email: "m@example.com"}
	leaderID := uuid.New()
	inviteID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM team_invites .+ FOR UPDATE`).
		WithArgs(inviteID, user.Email).
		WillReturnRows(pgxmock.NewRows(inviteCols).
			AddRow(inviteID, leaderID, user.Email, 20.0, "USD", false, models.InviteStatusPending, now, now))
	mock.ExpectExec(`INSERT INTO team_members`).
		WithArgs(leaderID, user.ID, 20.0, "USD", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE team_invites SET status = 'accepted'`).
		WithArgs(inviteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	inv, err := svc.AcceptInvite(context.Background(), inviteID, user)

	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, inv.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_AcceptInvite_NotAddressedToUser(t *testing.T) {
	svc, mock := setupTeamService(t)
	user := &models.User{ID: uuid.New(), Email: "other@example.com"}
	inviteID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM team_invites`).
		WithArgs(inviteID, user.Email).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.AcceptInvite(context.Background(), inviteID, user)

	assert.ErrorIs(t, err, ErrInviteNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_DeclineInvite_NotPending(t *testing.T) {
	svc, mock := setupTeamService(t)
	inviteID := uuid.New()

	mock.ExpectExec(`UPDATE team_invites SET status = 'declined'`).
		WithArgs(inviteID, "m@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.DeclineInvite(context.Background(), inviteID, "m@example.com")

	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestTeamService_AreTeammates(t *testing.T) {
	svc, mock := setupTeamService(t)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(a, b).
		WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(true))

	ok, err := svc.AreTeammates(context.Background(), a, b)

	require.NoError(t, err)
	assert.True(t, ok)
}
