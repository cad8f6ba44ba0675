package service

import (
	"sort"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// TitleInput creates a title. Category is an optional slug, Genres a list of slugs.
type TitleInput struct {
	Name        string
	Year        int
	Description *string
	Category    *string
	Genres      []string
}

// TitlePatch is a partial update; nil fields are left unchanged.
// A Category pointing to "" detaches the title from its category and
// ClearDescription sets the description to null.
type TitlePatch struct {
	Name             *string
	Year             *int
	Description      *string
	ClearDescription bool
	Category         *string
	Genres           *[]string
}

// RatedTitle is a title with its derived rating, nil when it has no reviews.
type RatedTitle struct {
	*models.Title
	Rating *int
}

type TitleService struct {
	titleRepo    *repository.TitleRepository
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
	ratings      *RatingAggregator
}

func NewTitleService(
	titleRepo *repository.TitleRepository,
	categoryRepo *repository.CategoryRepository,
	genreRepo *repository.GenreRepository,
	ratings *RatingAggregator,
) *TitleService {
	return &TitleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		ratings:      ratings,
	}
}

func (s *TitleService) Create(actor policy.Actor, input TitleInput) (*models.Title, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceTitle, nil); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
	}
	if err := validateTitle(title); err != nil {
		logger.Log.Warn("Title validation failed", zap.String("name", input.Name), zap.Error(err))
		return nil, err
	}

	if input.Category != nil && *input.Category != "" {
		categoryID, err := s.resolveCategory(*input.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &categoryID
	}

	genreIDs, err := s.resolveGenres(input.Genres)
	if err != nil {
		return nil, err
	}

	if err := s.titleRepo.Create(title, genreIDs); err != nil {
		logger.Log.Error("Failed to create title", zap.String("name", title.Name), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
		zap.Int("genres", len(genreIDs)),
		zap.String("by", actor.Username),
	)
	return s.load(title.ID)
}

func (s *TitleService) Get(actor policy.Actor, id uint) (*RatedTitle, error) {
	if err := policy.Authorize(actor, policy.ActionRetrieve, policy.ResourceTitle, nil); err != nil {
		return nil, err
	}

	title, err := s.load(id)
	if err != nil {
		return nil, err
	}

	rated, err := s.rate([]models.Title{*title})
	if err != nil {
		return nil, err
	}
	return &rated[0], nil
}

func (s *TitleService) List(actor policy.Actor, filter repository.TitleFilter, page, pageSize int) ([]RatedTitle, int64, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.ResourceTitle, nil); err != nil {
		return nil, 0, err
	}

	titles, total, err := s.titleRepo.List(filter, page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list titles", zap.Error(err))
		return nil, 0, err
	}

	rated, err := s.rate(titles)
	if err != nil {
		return nil, 0, err
	}
	return rated, total, nil
}

func (s *TitleService) Update(actor policy.Actor, id uint, patch TitlePatch) (*models.Title, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceTitle, nil); err != nil {
		return nil, err
	}

	title, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		title.Name = *patch.Name
	}
	if patch.Year != nil {
		title.Year = *patch.Year
	}
	if patch.Description != nil {
		title.Description = patch.Description
	} else if patch.ClearDescription {
		title.Description = nil
	}
	if err := validateTitle(title); err != nil {
		logger.Log.Warn("Title update validation failed", zap.Uint("title_id", id), zap.Error(err))
		return nil, err
	}

	if patch.Category != nil {
		if *patch.Category == "" {
			title.CategoryID = nil
		} else {
			categoryID, err := s.resolveCategory(*patch.Category)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &categoryID
		}
	}

	var genreIDs []uint
	if patch.Genres != nil {
		genreIDs, err = s.resolveGenres(*patch.Genres)
		if err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []uint{}
		}
	}

	if err := s.titleRepo.Update(title, genreIDs); err != nil {
		logger.Log.Error("Failed to update title", zap.Uint("title_id", id), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Title updated", zap.Uint("title_id", id), zap.String("by", actor.Username))
	return s.load(id)
}

func (s *TitleService) Delete(actor policy.Actor, id uint) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceTitle, nil); err != nil {
		return err
	}

	if _, err := s.load(id); err != nil {
		return err
	}

	if err := s.titleRepo.Delete(id); err != nil {
		logger.Log.Error("Failed to delete title", zap.Uint("title_id", id), zap.Error(err))
		return err
	}

	logger.Log.Info("Title deleted", zap.Uint("title_id", id), zap.String("by", actor.Username))
	return nil
}

func (s *TitleService) load(id uint) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		logger.Log.Error("Failed to get title", zap.Uint("title_id", id), zap.Error(err))
		return nil, err
	}
	if title == nil {
		return nil, apperror.NotFound("title", uintKey(id))
	}
	return title, nil
}

func (s *TitleService) rate(titles []models.Title) ([]RatedTitle, error) {
	ids := make([]uint, len(titles))
	for i := range titles {
		ids[i] = titles[i].ID
	}

	ratings, err := s.ratings.Ratings(ids)
	if err != nil {
		logger.Log.Error("Failed to aggregate ratings", zap.Int("titles", len(ids)), zap.Error(err))
		return nil, err
	}

	out := make([]RatedTitle, len(titles))
	for i := range titles {
		out[i] = RatedTitle{Title: &titles[i], Rating: ratings[titles[i].ID]}
	}
	return out, nil
}

func (s *TitleService) resolveCategory(slug string) (uint, error) {
	category, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, apperror.Validation("category", "unknown category slug "+slug)
	}
	return category.ID, nil
}

// resolveGenres maps slugs to ids, dropping duplicates. Any unknown slug fails.
func (s *TitleService) resolveGenres(slugs []string) ([]uint, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	unique := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		unique[slug] = struct{}{}
	}
	wanted := make([]string, 0, len(unique))
	for slug := range unique {
		wanted = append(wanted, slug)
	}
	sort.Strings(wanted)

	genres, err := s.genreRepo.GetBySlugs(wanted)
	if err != nil {
		return nil, err
	}

	found := make(map[string]uint, len(genres))
	for _, g := range genres {
		found[g.Slug] = g.ID
	}

	ids := make([]uint, 0, len(wanted))
	for _, slug := range wanted {
		id, ok := found[slug]
		if !ok {
			return nil, apperror.Validation("genre", "unknown genre slug "+slug)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validateTitle(title *models.Title) error {
	if err := validateName(title.Name); err != nil {
		return err
	}
	if err := validateYear(title.Year); err != nil {
		return err
	}
	return validateDescription(title.Description)
}
