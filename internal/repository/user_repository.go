package repository

import (
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(user *models.User) error {
	return translate(r.db.Create(user).Error)
}

func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email)
}

func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	return r.first("id = ?", id)
}

// first returns (nil, nil) when no row matches.
func (r *UserRepository) first(query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of users ordered by username, optionally filtered
// by a username substring, together with the total match count.
func (r *UserRepository) ListUsers(search string, page, pageSize int) ([]models.User, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			return db.Where(likeClause("username"), likePattern(search))
		}
		return db
	}

	var total int64
	if err := r.db.Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := r.db.Scopes(filter, paginate(page, pageSize)).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser persists every column of user.
func (r *UserRepository) UpdateUser(user *models.User) error {
	return translate(r.db.Save(user).Error)
}

// DeleteUser removes the user together with their comments, the comments left
// on their reviews and the reviews themselves, in one transaction.
func (r *UserRepository) DeleteUser(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}

// StoreConfirmationCode commits user with a new code hash and then runs deliver
// outside the transaction. When delivery fails the write is compensated: a new
// user is removed and an existing user gets the previous code back, unless a
// concurrent signup has replaced the code in the meantime.
func (r *UserRepository) StoreConfirmationCode(user *models.User, isNew bool, codeHash string, deliver func() error) error {
	previous := user.ConfirmationCode
	user.ConfirmationCode = &codeHash
	if isNew {
		if err := r.db.Create(user).Error; err != nil {
			return translate(err)
		}
	} else {
		err := r.db.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("confirmation_code", codeHash).Error
		if err != nil {
			return err
		}
	}

	deliverErr := deliver()
	if deliverErr == nil {
		return nil
	}

	var undo *gorm.DB
	if isNew {
		undo = r.db.Where("id = ? AND confirmation_code = ?", user.ID, codeHash).Delete(&models.User{})
	} else {
		undo = r.db.Model(&models.User{}).
			Where("id = ? AND confirmation_code = ?", user.ID, codeHash).
			Update("confirmation_code", previous)
	}
	user.ConfirmationCode = previous
	if undo.Error != nil {
		return fmt.Errorf("%w (undo failed: %v)", deliverErr, undo.Error)
	}
	return deliverErr
}

// ConsumeConfirmationCode clears the stored code only if it still equals codeHash.
// It returns false when another request consumed or replaced it first.
func (r *UserRepository) ConsumeConfirmationCode(id uuid.UUID, codeHash string) (bool, error) {
	result := r.db.Model(&models.User{}).
		Where("id = ? AND confirmation_code = ?", id, codeHash).
		Update("confirmation_code", nil)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FirstOrCreateUser inserts user unless a row with the same id exists.
func (r *UserRepository) FirstOrCreateUser(user *models.User) error {
	return translate(r.db.Where("id = ?", user.ID).FirstOrCreate(user).Error)
}
