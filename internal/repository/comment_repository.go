package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(comment *models.Comment) error {
	return translate(r.db.Omit(clause.Associations).Create(comment).Error)
}

// GetByID returns (nil, nil) unless the comment exists under reviewID.
func (r *CommentRepository) GetByID(reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// ListByReview returns a page of the review's comments, newest first.
func (r *CommentRepository) ListByReview(reviewID uint, page, pageSize int) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.Model(&models.Comment{}).Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := r.db.Preload("Author").
		Where("review_id = ?", reviewID).
		Scopes(paginate(page, pageSize)).
		Order("pub_date DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepository) Update(comment *models.Comment) error {
	return r.db.Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		Update("text", comment.Text).Error
}

func (r *CommentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Comment{}, id).Error
}

func (r *CommentRepository) FirstOrCreate(comment *models.Comment) error {
	return translate(r.db.Omit(clause.Associations).Where("id = ?", comment.ID).FirstOrCreate(comment).Error)
}
