package service

import (
	"fmt"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// UserInput is the payload of an administrator creating an account.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      models.Role
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(actor policy.Actor, search string, page, pageSize int) ([]models.User, int64, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.ResourceUser, nil); err != nil {
		return nil, 0, err
	}

	users, total, err := s.userRepo.ListUsers(search, page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list users", zap.String("search", search), zap.Error(err))
		return nil, 0, err
	}

	logger.Log.Debug("Listed users",
		zap.String("admin", actor.Username),
		zap.Int("count", len(users)),
		zap.Int64("total", total),
	)
	return users, total, nil
}

func (s *UserService) Create(actor policy.Actor, input UserInput) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceUser, nil); err != nil {
		return nil, err
	}

	if input.Role == "" {
		input.Role = models.RoleUser
	}
	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Role:      input.Role,
	}
	if err := validateUser(user); err != nil {
		logger.Log.Warn("User validation failed", zap.String("username", input.Username), zap.Error(err))
		return nil, err
	}
	if err := s.ensureUnique(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user", zap.String("username", user.Username), zap.Error(err))
		return nil, duplicateAsConflict(err, "username", "username or email already taken")
	}

	logger.Log.Info("User created by administrator",
		zap.String("admin", actor.Username),
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *UserService) Get(actor policy.Actor, username string) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionRetrieve, policy.ResourceUser, nil); err != nil {
		return nil, err
	}
	return s.getByUsername(username)
}

func (s *UserService) Update(actor policy.Actor, username string, patch UserPatch) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceUser, nil); err != nil {
		return nil, err
	}

	user, err := s.getByUsername(username)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(user, patch, true)
}

func (s *UserService) Delete(actor policy.Actor, username string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceUser, nil); err != nil {
		return err
	}

	user, err := s.getByUsername(username)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(user.ID); err != nil {
		logger.Log.Error("Failed to delete user", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}

	logger.Log.Info("User deleted",
		zap.String("admin", actor.Username),
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(actor policy.Actor) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionRetrieve, policy.ResourceProfile, nil); err != nil {
		return nil, err
	}
	return s.getByID(actor)
}

// UpdateMe applies a partial update to the caller's profile. Role cannot be
// changed through this path and is silently ignored.
func (s *UserService) UpdateMe(actor policy.Actor, patch UserPatch) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceProfile, nil); err != nil {
		return nil, err
	}

	user, err := s.getByID(actor)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(user, patch, false)
}

func (s *UserService) applyPatch(user *models.User, patch UserPatch, allowRole bool) (*models.User, error) {
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if allowRole && patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := validateUser(user); err != nil {
		logger.Log.Warn("User update validation failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, err
	}
	if err := s.ensureUnique(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		logger.Log.Error("Failed to update user", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, duplicateAsConflict(err, "username", "username or email already taken")
	}

	logger.Log.Info("User updated",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// ensureUnique rejects a username or email held by another account.
func (s *UserService) ensureUnique(user *models.User) error {
	other, err := s.userRepo.GetUserByUsername(user.Username)
	if err != nil {
		return err
	}
	if other != nil && other.ID != user.ID {
		return apperror.Conflict("username", "username already taken")
	}

	other, err = s.userRepo.GetUserByEmail(user.Email)
	if err != nil {
		return err
	}
	if other != nil && other.ID != user.ID {
		return apperror.Conflict("email", "email already registered")
	}
	return nil
}

func (s *UserService) getByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to get user", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user", username)
	}
	return user, nil
}

func (s *UserService) getByID(actor policy.Actor) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(actor.UserID)
	if err != nil {
		logger.Log.Error("Failed to get user", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user", actor.Username)
	}
	return user, nil
}

func validateUser(user *models.User) error {
	if err := validateUsername(user.Username); err != nil {
		return err
	}
	if err := validateEmail(user.Email); err != nil {
		return err
	}
	if err := validatePersonName("first_name", user.FirstName); err != nil {
		return err
	}
	if err := validatePersonName("last_name", user.LastName); err != nil {
		return err
	}
	if !user.Role.Valid() {
		return apperror.Validation("role", fmt.Sprintf("unknown role %q", user.Role))
	}
	return nil
}
