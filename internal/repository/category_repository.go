package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(category *models.Category) error {
	return translate(r.db.Create(category).Error)
}

// GetBySlug returns (nil, nil) when the slug is unknown.
func (r *CategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) List(search string, page, pageSize int) ([]models.Category, int64, error) {
	filter := nameFilter(search)

	var total int64
	if err := r.db.Model(&models.Category{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	err := r.db.Scopes(filter, paginate(page, pageSize)).
		Order("name ASC, id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// Delete removes the category and detaches it from its titles.
func (r *CategoryRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Title{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
}

func (r *CategoryRepository) FirstOrCreate(category *models.Category) error {
	return translate(r.db.Where("id = ?", category.ID).FirstOrCreate(category).Error)
}

// nameFilter narrows a query to rows whose name contains search.
func nameFilter(search string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		return db.Where(likeClause("name"), likePattern(search))
	}
}
