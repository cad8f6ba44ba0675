package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
)

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) Create(genre *models.Genre) error {
	return translate(r.db.Create(genre).Error)
}

func (r *GenreRepository) GetBySlug(slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.Where("slug = ?", slug).First(&genre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &genre, nil
}

// GetBySlugs returns the genres matching slugs; unknown slugs are simply absent.
func (r *GenreRepository) GetBySlugs(slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var genres []models.Genre
	if err := r.db.Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *GenreRepository) List(search string, page, pageSize int) ([]models.Genre, int64, error) {
	filter := nameFilter(search)

	var total int64
	if err := r.db.Model(&models.Genre{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []models.Genre
	err := r.db.Scopes(filter, paginate(page, pageSize)).
		Order("name ASC, id ASC").
		Find(&genres).Error
	if err != nil {
		return nil, 0, err
	}
	return genres, total, nil
}

// Delete removes the genre. Links from titles stay behind with a NULL genre_id.
func (r *GenreRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.TitleGenre{}).
			Where("genre_id = ?", id).
			Update("genre_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&models.Genre{}, id).Error
	})
}

func (r *GenreRepository) FirstOrCreate(genre *models.Genre) error {
	return translate(r.db.Where("id = ?", genre.ID).FirstOrCreate(genre).Error)
}
