package invitations

import (
	"context"
	"regexp"
	"testing"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Club{}, &domain.Team{}, &domain.Invitation{}, &domain.RoleGrant{}))
	return &Service{DB: db, InviteBaseURL: "https://app.teamhub.test"}, db
}

// seedCoach creates a team plus a user granted head_coach on it.
func seedCoach(t *testing.T, db *gorm.DB) (*domain.User, *domain.Team) {
	team := &domain.Team{TeamName: "Thunder U12", Sport: "soccer"}
	require.NoError(t, db.Create(team).Error)
	coach := &domain.User{Fullname: "Pat Morgan", Email: "pat@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(coach).Error)
	require.NoError(t, db.Create(&domain.RoleGrant{
		UserID:     coach.UserID,
		EntityKind: domain.EntityTeam,
		EntityID:   team.TeamID,
		Role:       constants.HeadCoach,
	}).Error)
	return coach, team
}

func TestGenerateCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := GenerateCode()
		assert.Regexp(t, pattern, code)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestCreateInvite_CoachInvitesPlayer(t *testing.T) {
	svc, db := setupServiceTest(t)
	coach, team := seedCoach(t, db)

	inv, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: coach.UserID.String(),
		Kind:        domain.KindTeam,
		TeamID:      &team.TeamID,
		Role:        constants.Player,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Code)
	require.NotNil(t, inv.ExpiresAt)

	payload, err := inv.DisplayPayload()
	require.NoError(t, err)
	assert.Equal(t, "Thunder U12", payload.(domain.TeamInvitePayload).TeamName)
}

func TestCreateInvite_PlayerCannotInvite(t *testing.T) {
	svc, db := setupServiceTest(t)
	_, team := seedCoach(t, db)

	player := &domain.User{Fullname: "Sam Lee", Email: "sam@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(player).Error)
	require.NoError(t, db.Create(&domain.RoleGrant{
		UserID:     player.UserID,
		EntityKind: domain.EntityTeam,
		EntityID:   team.TeamID,
		Role:       constants.Player,
	}).Error)

	_, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: player.UserID.String(),
		Kind:        domain.KindTeam,
		TeamID:      &team.TeamID,
		Role:        constants.Player,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestCreateInvite_OutsiderCannotInvite(t *testing.T) {
	svc, db := setupServiceTest(t)
	_, team := seedCoach(t, db)

	outsider := &domain.User{Fullname: "Alex Cruz", Email: "alex@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(outsider).Error)

	_, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: outsider.UserID.String(),
		Kind:        domain.KindTeam,
		TeamID:      &team.TeamID,
		Role:        constants.Player,
	})
	require.Error(t, err)
}

func TestCreateInvite_InvalidRole(t *testing.T) {
	svc, db := setupServiceTest(t)
	coach, team := seedCoach(t, db)

	_, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: coach.UserID.String(),
		Kind:        domain.KindTeam,
		TeamID:      &team.TeamID,
		Role:        "superuser",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid role")
}

func TestCreateInvite_StaffKindTargetsClub(t *testing.T) {
	svc, db := setupServiceTest(t)

	club := &domain.Club{ClubName: "Northside FC", ClubCode: "NS-1234"}
	require.NoError(t, db.Create(club).Error)
	admin := &domain.User{Fullname: "Dana Fox", Email: "dana@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(&domain.RoleGrant{
		UserID:     admin.UserID,
		EntityKind: domain.EntityClub,
		EntityID:   club.ClubID,
		Role:       constants.ClubAdmin,
	}).Error)

	inv, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: admin.UserID.String(),
		Kind:        domain.KindStaff,
		ClubID:      &club.ClubID,
		Role:        constants.ClubStaff,
	})
	require.NoError(t, err)

	kind, id, err := inv.EntityID()
	require.NoError(t, err)
	assert.Equal(t, domain.EntityClub, kind)
	assert.Equal(t, club.ClubID, id)
}

func TestListInvites_ByTeam(t *testing.T) {
	svc, db := setupServiceTest(t)
	coach, team := seedCoach(t, db)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateInvite(context.Background(), CreateInviteInput{
			ActorUserID: coach.UserID.String(),
			Kind:        domain.KindTeam,
			TeamID:      &team.TeamID,
			Role:        constants.Player,
		})
		require.NoError(t, err)
	}

	got, err := svc.ListInvites(context.Background(), ListInvitesInput{
		EntityKind: domain.EntityTeam,
		EntityID:   team.TeamID,
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = svc.ListInvites(context.Background(), ListInvitesInput{
		EntityKind: domain.EntityTeam,
		EntityID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRevokeInvite_StopsValidation(t *testing.T) {
	svc, db := setupServiceTest(t)
	coach, team := seedCoach(t, db)

	inv, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: coach.UserID.String(),
		Kind:        domain.KindTeam,
		TeamID:      &team.TeamID,
		Role:        constants.Player,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeInvite(context.Background(), inv.Code))

	v := &Validator{DB: db}
	status := v.Validate(context.Background(), inv.Code)
	assert.Equal(t, StatusNotFound, status.Kind)
}

func TestRevokeInvite_ConsumedIsImmutable(t *testing.T) {
	svc, db := setupServiceTest(t)
	coach, team := seedCoach(t, db)

	inv, err := svc.CreateInvite(context.Background(), CreateInviteInput{
		ActorUserID: coach.UserID.String(),
		Kind:        domain.KindTeam,
		TeamID:      &team.TeamID,
		Role:        constants.Player,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("invite_id = ?", inv.InviteID).
		Update("consumed_at", gorm.Expr("CURRENT_TIMESTAMP")).Error)

	err = svc.RevokeInvite(context.Background(), inv.Code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already been used")
}

func TestRevokeInvite_UnknownCode(t *testing.T) {
	svc, _ := setupServiceTest(t)
	err := svc.RevokeInvite(context.Background(), "ZZZ-MISSING")
	require.Error(t, err)
}
