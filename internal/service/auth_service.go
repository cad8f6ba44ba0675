package service

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

func invalidCode() error {
	return apperror.Auth("invalid confirmation code")
}

type AuthService struct {
	userRepo      *repository.UserRepository
	mailer        mailer.Mailer
	mailFrom      string
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, m mailer.Mailer, mailFrom, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		mailer:        m,
		mailFrom:      mailFrom,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Signup issues a confirmation code. An exact (username, email) pair that is
// already registered gets a fresh code; otherwise a new user is created.
// The stored code hash and the delivery commit or roll back together.
func (s *AuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing signup",
		zap.String("username", username),
		zap.String("email", email),
	)

	// 1. Validate input
	if err := validateUsername(username); err != nil {
		logger.Log.Warn("Signup validation failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		logger.Log.Warn("Signup validation failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	// 2. Resolve existing account
	user, err := s.resolveSignupUser(username, email)
	if err != nil {
		return nil, err
	}
	isNew := user == nil
	if isNew {
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
	}

	// 3. Generate and hash a fresh code
	code, err := utils.GenerateConfirmationCode()
	if err != nil {
		logger.Log.Error("Failed to generate confirmation code", zap.Error(err))
		return nil, err
	}
	codeHash, err := utils.HashCode(code)
	if err != nil {
		logger.Log.Error("Failed to hash confirmation code", zap.Error(err))
		return nil, err
	}

	// 4. Persist, then deliver; a failed delivery undoes the write
	msg := mailer.ConfirmationMessage(s.mailFrom, email, username, code)
	err = s.userRepo.StoreConfirmationCode(user, isNew, codeHash, func() error {
		return s.mailer.Send(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			logger.Log.Warn("Signup lost a race on unique username/email",
				zap.String("username", username),
				zap.String("email", email),
			)
			return nil, apperror.Conflict("username", "username or email already taken").Wrap(err)
		}
		logger.Log.Error("Failed to store or deliver confirmation code",
			zap.String("username", username),
			zap.Bool("new_user", isNew),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Confirmation code sent",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
		zap.String("message_id", msg.ID),
		zap.Bool("new_user", isNew),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

// resolveSignupUser returns the user owning the exact pair, nil when both
// username and email are free, or a ConflictError when only one matches.
func (s *AuthService) resolveSignupUser(username, email string) (*models.User, error) {
	byUsername, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to check username existence", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if byUsername != nil {
		if byUsername.Email == email {
			return byUsername, nil
		}
		logger.Log.Warn("Username already taken", zap.String("username", username))
		return nil, apperror.Conflict("username", "username already taken")
	}

	byEmail, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if byEmail != nil {
		logger.Log.Warn("Email already registered", zap.String("email", email))
		return nil, apperror.Conflict("email", "email already registered")
	}

	return nil, nil
}

// Token exchanges a confirmation code for an access token. The code is
// consumed on success and cannot be replayed.
func (s *AuthService) Token(username, code string) (string, error) {
	start := time.Now()

	logger.Log.Debug("Processing token exchange", zap.String("username", username))

	// 1. Get user
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to get user by username", zap.String("username", username), zap.Error(err))
		return "", err
	}
	if user == nil {
		logger.Log.Warn("Token exchange for unknown user", zap.String("username", username))
		return "", apperror.NotFound("user", username)
	}

	// 2. Verify code
	if user.ConfirmationCode == nil {
		logger.Log.Warn("Token exchange without pending code", zap.String("user_id", user.ID.String()))
		return "", invalidCode()
	}
	storedHash := *user.ConfirmationCode

	valid, err := utils.VerifyCode(code, storedHash)
	if err != nil {
		logger.Log.Error("Failed to verify confirmation code", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", err
	}
	if !valid {
		logger.Log.Warn("Token exchange with wrong code", zap.String("user_id", user.ID.String()))
		return "", invalidCode()
	}

	// 3. Consume it; a concurrent exchange of the same code loses here
	consumed, err := s.userRepo.ConsumeConfirmationCode(user.ID, storedHash)
	if err != nil {
		logger.Log.Error("Failed to clear confirmation code", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", err
	}
	if !consumed {
		logger.Log.Warn("Confirmation code already used", zap.String("user_id", user.ID.String()))
		return "", invalidCode()
	}

	// 4. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", err
	}

	logger.Log.Info("Access token issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)

	return token, nil
}
