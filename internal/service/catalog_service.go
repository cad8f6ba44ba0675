package service

import (
	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// CatalogService manages categories and genres. Neither supports update.
type CatalogService struct {
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
}

func NewCatalogService(categoryRepo *repository.CategoryRepository, genreRepo *repository.GenreRepository) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *CatalogService) CreateCategory(actor policy.Actor, name, slug string) (*models.Category, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceCategory, nil); err != nil {
		return nil, err
	}
	if err := validateCatalogEntry(name, slug); err != nil {
		logger.Log.Warn("Category validation failed", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	existing, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("slug", "category with this slug already exists")
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(category); err != nil {
		logger.Log.Error("Failed to create category", zap.String("slug", slug), zap.Error(err))
		return nil, duplicateAsConflict(err, "slug", "category with this slug already exists")
	}

	logger.Log.Info("Category created", zap.String("slug", slug), zap.String("by", actor.Username))
	return category, nil
}

func (s *CatalogService) ListCategories(search string, page, pageSize int) ([]models.Category, int64, error) {
	categories, total, err := s.categoryRepo.List(search, page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list categories", zap.Error(err))
		return nil, 0, err
	}
	return categories, total, nil
}

func (s *CatalogService) DeleteCategory(actor policy.Actor, slug string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceCategory, nil); err != nil {
		return err
	}

	category, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return err
	}
	if category == nil {
		return apperror.NotFound("category", slug)
	}

	if err := s.categoryRepo.Delete(category.ID); err != nil {
		logger.Log.Error("Failed to delete category", zap.String("slug", slug), zap.Error(err))
		return err
	}

	logger.Log.Info("Category deleted", zap.String("slug", slug), zap.String("by", actor.Username))
	return nil
}

func (s *CatalogService) CreateGenre(actor policy.Actor, name, slug string) (*models.Genre, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceGenre, nil); err != nil {
		return nil, err
	}
	if err := validateCatalogEntry(name, slug); err != nil {
		logger.Log.Warn("Genre validation failed", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	existing, err := s.genreRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("slug", "genre with this slug already exists")
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.Create(genre); err != nil {
		logger.Log.Error("Failed to create genre", zap.String("slug", slug), zap.Error(err))
		return nil, duplicateAsConflict(err, "slug", "genre with this slug already exists")
	}

	logger.Log.Info("Genre created", zap.String("slug", slug), zap.String("by", actor.Username))
	return genre, nil
}

func (s *CatalogService) ListGenres(search string, page, pageSize int) ([]models.Genre, int64, error) {
	genres, total, err := s.genreRepo.List(search, page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list genres", zap.Error(err))
		return nil, 0, err
	}
	return genres, total, nil
}

func (s *CatalogService) DeleteGenre(actor policy.Actor, slug string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceGenre, nil); err != nil {
		return err
	}

	genre, err := s.genreRepo.GetBySlug(slug)
	if err != nil {
		return err
	}
	if genre == nil {
		return apperror.NotFound("genre", slug)
	}

	if err := s.genreRepo.Delete(genre.ID); err != nil {
		logger.Log.Error("Failed to delete genre", zap.String("slug", slug), zap.Error(err))
		return err
	}

	logger.Log.Info("Genre deleted", zap.String("slug", slug), zap.String("by", actor.Username))
	return nil
}

func validateCatalogEntry(name, slug string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return validateSlug(slug)
}
