package service_test

import (
	"testing"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type UserServiceIntegrationTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	userService *service.UserService
	admin       policy.Actor
}

func (s *UserServiceIntegrationTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.userService = service.NewUserService(repository.NewUserRepository(s.testDB.DB))
}

func (s *UserServiceIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *UserServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.admin = policy.FromUser(testutil.CreateUser(s.T(), s.testDB.DB, "admin", models.RoleAdmin))
}

func (s *UserServiceIntegrationTestSuite) TestCreate_AdminMaySetRole() {
	user, err := s.userService.Create(s.admin, service.UserInput{
		Username: "mod",
		Email:    "mod@example.com",
		Role:     models.RoleModerator,
	})
	s.Require().NoError(err)
	assert.Equal(s.T(), models.RoleModerator, user.Role)

	_, err = s.userService.Create(s.admin, service.UserInput{Username: "mod", Email: "x@example.com"})
	assert.ErrorIs(s.T(), err, apperror.ErrConflict)

	_, err = s.userService.Create(s.admin, service.UserInput{Username: "x", Email: "x@example.com", Role: "emperor"})
	assert.ErrorIs(s.T(), err, apperror.ErrValidation)
}

func (s *UserServiceIntegrationTestSuite) TestList_SearchTreatsUnderscoreLiterally() {
	testutil.CreateUser(s.T(), s.testDB.DB, "ann_lee", models.RoleUser)
	testutil.CreateUser(s.T(), s.testDB.DB, "annelee", models.RoleUser)

	users, total, err := s.userService.List(s.admin, "N_L", 1, 10)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), total)
	assert.Equal(s.T(), "ann_lee", users[0].Username)
}

func (s *UserServiceIntegrationTestSuite) TestCreate_RejectsMe() {
	for _, name := range []string{"me", "ME", "mE"} {
		_, err := s.userService.Create(s.admin, service.UserInput{Username: name, Email: name + "@example.com"})
		assert.ErrorIs(s.T(), err, apperror.ErrValidation, name)
	}
}

func (s *UserServiceIntegrationTestSuite) TestAdminEndpoints_RequireAdmin() {
	plain := policy.FromUser(testutil.CreateUser(s.T(), s.testDB.DB, "plain", models.RoleUser))
	moderator := policy.FromUser(testutil.CreateUser(s.T(), s.testDB.DB, "moderator", models.RoleModerator))
	superuser := policy.FromUser(testutil.CreateSuperuser(s.T(), s.testDB.DB, "root"))

	_, _, err := s.userService.List(policy.Anonymous(), "", 1, 10)
	assert.ErrorIs(s.T(), err, apperror.ErrAuth)

	_, _, err = s.userService.List(plain, "", 1, 10)
	assert.ErrorIs(s.T(), err, apperror.ErrPermission)

	_, err = s.userService.Get(moderator, "plain")
	assert.ErrorIs(s.T(), err, apperror.ErrPermission)

	users, total, err := s.userService.List(superuser, "o", 1, 10)
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(2), total)
	assert.Equal(s.T(), "moderator", users[0].Username)
	assert.Equal(s.T(), "root", users[1].Username)
}

func (s *UserServiceIntegrationTestSuite) TestUpdate_PartialWithRole() {
	testutil.CreateUser(s.T(), s.testDB.DB, "dana", models.RoleUser)
	bio := "film buff"
	role := models.RoleModerator

	user, err := s.userService.Update(s.admin, "dana", service.UserPatch{Bio: &bio, Role: &role})
	s.Require().NoError(err)
	assert.Equal(s.T(), "film buff", user.Bio)
	assert.Equal(s.T(), models.RoleModerator, user.Role)
	assert.Equal(s.T(), "dana@example.com", user.Email)

	taken := "admin@example.com"
	_, err = s.userService.Update(s.admin, "dana", service.UserPatch{Email: &taken})
	assert.ErrorIs(s.T(), err, apperror.ErrConflict)

	_, err = s.userService.Update(s.admin, "ghost", service.UserPatch{Bio: &bio})
	assert.ErrorIs(s.T(), err, apperror.ErrNotFound)
}

func (s *UserServiceIntegrationTestSuite) TestUpdateMe_IgnoresRole() {
	user := testutil.CreateUser(s.T(), s.testDB.DB, "eve", models.RoleUser)
	me := policy.FromUser(user)
	first := "Eve"
	role := models.RoleAdmin

	updated, err := s.userService.UpdateMe(me, service.UserPatch{FirstName: &first, Role: &role})
	s.Require().NoError(err)
	assert.Equal(s.T(), "Eve", updated.FirstName)
	assert.Equal(s.T(), models.RoleUser, updated.Role)

	profile, err := s.userService.Me(me)
	s.Require().NoError(err)
	assert.Equal(s.T(), models.RoleUser, profile.Role)

	_, err = s.userService.Me(policy.Anonymous())
	assert.ErrorIs(s.T(), err, apperror.ErrAuth)

	reserved := "me"
	_, err = s.userService.UpdateMe(me, service.UserPatch{Username: &reserved})
	assert.ErrorIs(s.T(), err, apperror.ErrValidation)
}

func (s *UserServiceIntegrationTestSuite) TestDelete_RemovesAuthoredContent() {
	victim := testutil.CreateUser(s.T(), s.testDB.DB, "victim", models.RoleUser)
	bystander := testutil.CreateUser(s.T(), s.testDB.DB, "bystander", models.RoleUser)
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Ugetsu", 1953, nil)

	victimReview := testutil.CreateReview(s.T(), s.testDB.DB, victim, title, 6)
	testutil.CreateComment(s.T(), s.testDB.DB, bystander, victimReview, "on the victim's review")
	keptReview := testutil.CreateReview(s.T(), s.testDB.DB, bystander, title, 8)
	testutil.CreateComment(s.T(), s.testDB.DB, victim, keptReview, "by the victim")
	testutil.CreateComment(s.T(), s.testDB.DB, bystander, keptReview, "kept")

	s.Require().NoError(s.userService.Delete(s.admin, "victim"))

	var reviews []models.Review
	s.testDB.DB.Find(&reviews)
	s.Require().Len(reviews, 1)
	assert.Equal(s.T(), keptReview.ID, reviews[0].ID)

	var comments []models.Comment
	s.testDB.DB.Find(&comments)
	s.Require().Len(comments, 1)
	assert.Equal(s.T(), "kept", comments[0].Text)

	_, err := s.userService.Get(s.admin, "victim")
	assert.ErrorIs(s.T(), err, apperror.ErrNotFound)
}

func TestUserServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceIntegrationTestSuite))
}
