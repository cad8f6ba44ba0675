package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts the review. A second review by the same author on the same
// title fails with ErrDuplicate via the (author_id, title_id) unique index.
func (r *ReviewRepository) Create(review *models.Review) error {
	return translate(r.db.Omit(clause.Associations).Create(review).Error)
}

// GetByID loads a review of the given title with its author. Returns (nil, nil)
// when the review does not exist or belongs to a different title.
func (r *ReviewRepository) GetByID(titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ExistsByAuthorAndTitle(authorID uuid.UUID, titleID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Count(&count).Error
	return count > 0, err
}

// ListByTitle returns a page of the title's reviews, newest first.
func (r *ReviewRepository) ListByTitle(titleID uint, page, pageSize int) ([]models.Review, int64, error) {
	var total int64
	if err := r.db.Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := r.db.Preload("Author").
		Where("title_id = ?", titleID).
		Scopes(paginate(page, pageSize)).
		Order("pub_date DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Update saves text and score.
func (r *ReviewRepository) Update(review *models.Review) error {
	err := r.db.Model(&models.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{"text": review.Text, "score": review.Score}).Error
	return translate(err)
}

// Delete removes the review and its comments.
func (r *ReviewRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Review{}, id).Error
	})
}

// AverageScores returns AVG(score) per title for the given ids in one grouped
// query. Titles without reviews are absent from the map.
func (r *ReviewRepository) AverageScores(titleIDs []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(titleIDs))
	if len(titleIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		TitleID uint
		Average float64
	}
	err := r.db.Model(&models.Review{}).
		Select("title_id, AVG(score) AS average").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.TitleID] = row.Average
	}
	return out, nil
}

func (r *ReviewRepository) FirstOrCreate(review *models.Review) error {
	return translate(r.db.Omit(clause.Associations).Where("id = ?", review.ID).FirstOrCreate(review).Error)
}
