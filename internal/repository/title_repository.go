package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TitleFilter narrows title listings. Zero values are ignored.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

func (f TitleFilter) scope(db *gorm.DB) *gorm.DB {
	if f.CategorySlug != "" {
		db = db.Where("category_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Category{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if f.GenreSlug != "" {
		db = db.Where("id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&models.TitleGenre{}).
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", f.GenreSlug))
	}
	if f.Name != "" {
		db = db.Where(likeClause("name"), likePattern(f.Name))
	}
	if f.Year != nil {
		db = db.Where("year = ?", *f.Year)
	}
	return db
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("GenreLinks.Genre")
}

// Create inserts the title and its genre links.
func (r *TitleRepository) Create(title *models.Title, genreIDs []uint) error {
	title.Category = nil
	title.GenreLinks = links(genreIDs)
	return translate(r.db.Create(title).Error)
}

// GetByID loads the title with its category and genres. Returns (nil, nil) if absent.
func (r *TitleRepository) GetByID(id uint) (*models.Title, error) {
	var title models.Title
	err := r.db.Scopes(withRelations).First(&title, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &title, nil
}

// Exists reports whether a title with id is stored.
func (r *TitleRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Title{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *TitleRepository) List(filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var total int64
	if err := r.db.Model(&models.Title{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []models.Title
	err := r.db.Scopes(filter.scope, withRelations, paginate(page, pageSize)).
		Order("name ASC, id ASC").
		Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// Update saves the title columns. When genreIDs is non-nil the genre links are
// replaced by it.
func (r *TitleRepository) Update(title *models.Title, genreIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Title{ID: title.ID}).
			Updates(map[string]interface{}{
				"name":        title.Name,
				"year":        title.Year,
				"description": title.Description,
				"category_id": title.CategoryID,
			}).Error
		if err != nil {
			return translate(err)
		}
		if genreIDs == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&models.TitleGenre{}).Error; err != nil {
			return err
		}
		newLinks := links(genreIDs)
		for i := range newLinks {
			newLinks[i].TitleID = title.ID
		}
		if len(newLinks) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&newLinks).Error
	})
}

// Delete removes the title with its reviews, their comments and its genre links.
func (r *TitleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Title{}, id).Error
	})
}

func (r *TitleRepository) FirstOrCreate(title *models.Title) error {
	return translate(r.db.Omit(clause.Associations).Where("id = ?", title.ID).FirstOrCreate(title).Error)
}

func (r *TitleRepository) FirstOrCreateLink(link *models.TitleGenre) error {
	return translate(r.db.Omit(clause.Associations).Where("id = ?", link.ID).FirstOrCreate(link).Error)
}

func links(genreIDs []uint) []models.TitleGenre {
	out := make([]models.TitleGenre, 0, len(genreIDs))
	for _, id := range genreIDs {
		id := id
		out = append(out, models.TitleGenre{GenreID: &id})
	}
	return out
}
