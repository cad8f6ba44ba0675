package service_test

import (
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type CatalogServiceIntegrationTestSuite struct {
	suite.Suite
	testDB         *testutil.TestDatabase
	catalogService *service.CatalogService
	titleService   *service.TitleService
	titleRepo      *repository.TitleRepository
	admin          policy.Actor
	user           policy.Actor
}

func (s *CatalogServiceIntegrationTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())

	categoryRepo := repository.NewCategoryRepository(s.testDB.DB)
	genreRepo := repository.NewGenreRepository(s.testDB.DB)
	reviewRepo := repository.NewReviewRepository(s.testDB.DB)
	s.titleRepo = repository.NewTitleRepository(s.testDB.DB)

	s.catalogService = service.NewCatalogService(categoryRepo, genreRepo)
	s.titleService = service.NewTitleService(s.titleRepo, categoryRepo, genreRepo, service.NewRatingAggregator(reviewRepo))
}

func (s *CatalogServiceIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *CatalogServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.admin = policy.FromUser(testutil.CreateUser(s.T(), s.testDB.DB, "admin", models.RoleAdmin))
	s.user = policy.FromUser(testutil.CreateUser(s.T(), s.testDB.DB, "plain", models.RoleUser))
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func (s *CatalogServiceIntegrationTestSuite) TestCategory_CreateListDelete() {
	_, err := s.catalogService.CreateCategory(s.admin, "Films", "films")
	s.Require().NoError(err)
	_, err = s.catalogService.CreateCategory(s.admin, "Books", "books")
	s.Require().NoError(err)

	_, err = s.catalogService.CreateCategory(s.admin, "Films again", "films")
	assert.ErrorIs(s.T(), err, apperror.ErrConflict)

	_, err = s.catalogService.CreateCategory(s.admin, "Bad", "bad slug!")
	assert.ErrorIs(s.T(), err, apperror.ErrValidation)

	_, err = s.catalogService.CreateCategory(s.user, "Music", "music")
	assert.ErrorIs(s.T(), err, apperror.ErrPermission)

	_, err = s.catalogService.CreateCategory(policy.Anonymous(), "Music", "music")
	assert.ErrorIs(s.T(), err, apperror.ErrAuth)

	categories, total, err := s.catalogService.ListCategories("", 1, 10)
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(2), total)
	assert.Equal(s.T(), "Books", categories[0].Name, "ordered by name")

	categories, total, err = s.catalogService.ListCategories("ilm", 1, 10)
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(1), total)
	assert.Equal(s.T(), "films", categories[0].Slug)

	s.Require().NoError(s.catalogService.DeleteCategory(s.admin, "films"))
	assert.ErrorIs(s.T(), s.catalogService.DeleteCategory(s.admin, "films"), apperror.ErrNotFound)
}

func (s *CatalogServiceIntegrationTestSuite) TestCategoryDelete_LeavesTitlesWithNullCategory() {
	category := testutil.CreateCategory(s.T(), s.testDB.DB, "Films", "films")
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Stalker", 1979, category)

	s.Require().NoError(s.catalogService.DeleteCategory(s.admin, "films"))

	rated, err := s.titleService.Get(policy.Anonymous(), title.ID)
	s.Require().NoError(err)
	assert.Nil(s.T(), rated.CategoryID)
	assert.Nil(s.T(), rated.Category)
}

func (s *CatalogServiceIntegrationTestSuite) TestGenreDelete_KeepsDanglingLink() {
	drama := testutil.CreateGenre(s.T(), s.testDB.DB, "Drama", "drama")
	scifi := testutil.CreateGenre(s.T(), s.testDB.DB, "Sci-Fi", "sci-fi")
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Solaris", 1972, nil, drama, scifi)

	s.Require().NoError(s.catalogService.DeleteGenre(s.admin, "drama"))

	var links []models.TitleGenre
	s.Require().NoError(s.testDB.DB.Where("title_id = ?", title.ID).Find(&links).Error)
	assert.Len(s.T(), links, 2, "link rows survive genre deletion")

	rated, err := s.titleService.Get(policy.Anonymous(), title.ID)
	s.Require().NoError(err)
	genres := rated.Genres()
	s.Require().Len(genres, 1)
	assert.Equal(s.T(), "sci-fi", genres[0].Slug)
}

func (s *CatalogServiceIntegrationTestSuite) TestTitleCreate_Validation() {
	testutil.CreateCategory(s.T(), s.testDB.DB, "Films", "films")
	testutil.CreateGenre(s.T(), s.testDB.DB, "Drama", "drama")

	testCases := []struct {
		name  string
		input service.TitleInput
		field string
	}{
		{"empty name", service.TitleInput{Name: "", Year: 2000}, "name"},
		{"year too early", service.TitleInput{Name: "Old", Year: 1599}, "year"},
		{"year in future", service.TitleInput{Name: "Future", Year: time.Now().Year() + 1}, "year"},
		{"unknown category", service.TitleInput{Name: "X", Year: 2000, Category: strPtr("nope")}, "category"},
		{"unknown genre", service.TitleInput{Name: "X", Year: 2000, Genres: []string{"drama", "nope"}}, "genre"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.titleService.Create(s.admin, tc.input)
			s.Require().ErrorIs(err, apperror.ErrValidation)
			appErr, _ := apperror.As(err)
			assert.Equal(s.T(), tc.field, appErr.Field)
		})
	}
}

func (s *CatalogServiceIntegrationTestSuite) TestTitleCreate_Permissions() {
	input := service.TitleInput{Name: "Heat", Year: 1995}

	_, err := s.titleService.Create(policy.Anonymous(), input)
	assert.ErrorIs(s.T(), err, apperror.ErrAuth)

	_, err = s.titleService.Create(s.user, input)
	assert.ErrorIs(s.T(), err, apperror.ErrPermission)

	superuser := policy.FromUser(testutil.CreateSuperuser(s.T(), s.testDB.DB, "root"))
	_, err = s.titleService.Create(superuser, input)
	assert.NoError(s.T(), err)
}

func (s *CatalogServiceIntegrationTestSuite) TestTitle_RatingIsDerived() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Mirror", 1975, nil)
	empty := testutil.CreateTitle(s.T(), s.testDB.DB, "Nostalghia", 1983, nil)

	a := testutil.CreateUser(s.T(), s.testDB.DB, "a", models.RoleUser)
	b := testutil.CreateUser(s.T(), s.testDB.DB, "b", models.RoleUser)
	testutil.CreateReview(s.T(), s.testDB.DB, a, title, 4)
	testutil.CreateReview(s.T(), s.testDB.DB, b, title, 8)

	rated, err := s.titleService.Get(policy.Anonymous(), title.ID)
	s.Require().NoError(err)
	s.Require().NotNil(rated.Rating)
	assert.Equal(s.T(), 6, *rated.Rating)

	rated, err = s.titleService.Get(policy.Anonymous(), empty.ID)
	s.Require().NoError(err)
	assert.Nil(s.T(), rated.Rating)

	list, total, err := s.titleService.List(policy.Anonymous(), repository.TitleFilter{}, 1, 10)
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(2), total)
	s.Require().Len(list, 2)
	assert.Equal(s.T(), "Mirror", list[0].Name)
	s.Require().NotNil(list[0].Rating)
	assert.Equal(s.T(), 6, *list[0].Rating)
	assert.Nil(s.T(), list[1].Rating)
}

func (s *CatalogServiceIntegrationTestSuite) TestTitleList_Filters() {
	films := testutil.CreateCategory(s.T(), s.testDB.DB, "Films", "films")
	books := testutil.CreateCategory(s.T(), s.testDB.DB, "Books", "books")
	drama := testutil.CreateGenre(s.T(), s.testDB.DB, "Drama", "drama")
	comedy := testutil.CreateGenre(s.T(), s.testDB.DB, "Comedy", "comedy")

	testutil.CreateTitle(s.T(), s.testDB.DB, "The Godfather", 1972, films, drama)
	testutil.CreateTitle(s.T(), s.testDB.DB, "Airplane!", 1980, films, comedy)
	testutil.CreateTitle(s.T(), s.testDB.DB, "The Trial", 1925, books, drama)

	testCases := []struct {
		name   string
		filter repository.TitleFilter
		want   []string
	}{
		{"no filter", repository.TitleFilter{}, []string{"Airplane!", "The Godfather", "The Trial"}},
		{"category", repository.TitleFilter{CategorySlug: "films"}, []string{"Airplane!", "The Godfather"}},
		{"genre", repository.TitleFilter{GenreSlug: "drama"}, []string{"The Godfather", "The Trial"}},
		{"name substring", repository.TitleFilter{Name: "The"}, []string{"The Godfather", "The Trial"}},
		{"year", repository.TitleFilter{Year: intPtr(1980)}, []string{"Airplane!"}},
		{"combined", repository.TitleFilter{CategorySlug: "films", GenreSlug: "drama"}, []string{"The Godfather"}},
		{"unknown slug", repository.TitleFilter{GenreSlug: "horror"}, []string{}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			titles, total, err := s.titleService.List(policy.Anonymous(), tc.filter, 1, 10)
			s.Require().NoError(err)
			names := make([]string, 0, len(titles))
			for _, t := range titles {
				names = append(names, t.Name)
			}
			assert.Equal(s.T(), tc.want, names)
			assert.Equal(s.T(), int64(len(tc.want)), total)
		})
	}
}

func (s *CatalogServiceIntegrationTestSuite) TestSearch_WildcardCharactersMatchLiterally() {
	testutil.CreateTitle(s.T(), s.testDB.DB, "Rashomon", 1950, nil)
	testutil.CreateTitle(s.T(), s.testDB.DB, "Ran", 1985, nil)
	testutil.CreateTitle(s.T(), s.testDB.DB, "100% Wolf", 2020, nil)
	testutil.CreateCategory(s.T(), s.testDB.DB, "Films", "films")
	testutil.CreateCategory(s.T(), s.testDB.DB, "Short_Films", "short-films")

	testCases := []struct {
		name string
		term string
		want []string
	}{
		{"percent", "%", []string{"100% Wolf"}},
		{"underscore", "R_n", []string{}},
		{"backslash", `\`, []string{}},
		{"plain", "ra", []string{"Ran", "Rashomon"}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			titles, total, err := s.titleService.List(policy.Anonymous(), repository.TitleFilter{Name: tc.term}, 1, 10)
			s.Require().NoError(err)
			names := make([]string, 0, len(titles))
			for _, t := range titles {
				names = append(names, t.Name)
			}
			assert.Equal(s.T(), tc.want, names)
			assert.Equal(s.T(), int64(len(tc.want)), total)
		})
	}

	categories, total, err := s.catalogService.ListCategories("_", 1, 10)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), total)
	assert.Equal(s.T(), "short-films", categories[0].Slug)

	_, total, err = s.catalogService.ListGenres("%", 1, 10)
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(0), total)
}

func (s *CatalogServiceIntegrationTestSuite) TestTitleUpdate_ClearDescription() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Ran", 1985, nil)

	updated, err := s.titleService.Update(s.admin, title.ID, service.TitlePatch{
		Description: strPtr("King Lear in feudal Japan"),
	})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Description)

	updated, err = s.titleService.Update(s.admin, title.ID, service.TitlePatch{Year: intPtr(1986)})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Description, "omitted description is left unchanged")

	updated, err = s.titleService.Update(s.admin, title.ID, service.TitlePatch{ClearDescription: true})
	s.Require().NoError(err)
	assert.Nil(s.T(), updated.Description)
	assert.Equal(s.T(), 1986, updated.Year)
}

func (s *CatalogServiceIntegrationTestSuite) TestTitleUpdate_PartialAndGenreReplacement() {
	films := testutil.CreateCategory(s.T(), s.testDB.DB, "Films", "films")
	drama := testutil.CreateGenre(s.T(), s.testDB.DB, "Drama", "drama")
	testutil.CreateGenre(s.T(), s.testDB.DB, "Comedy", "comedy")
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Ran", 1985, films, drama)

	updated, err := s.titleService.Update(s.admin, title.ID, service.TitlePatch{
		Description: strPtr("King Lear in feudal Japan"),
	})
	s.Require().NoError(err)
	assert.Equal(s.T(), "Ran", updated.Name)
	assert.Equal(s.T(), 1985, updated.Year)
	s.Require().NotNil(updated.Category)
	assert.Equal(s.T(), "films", updated.Category.Slug)
	assert.Len(s.T(), updated.Genres(), 1)

	genres := []string{"comedy", "drama"}
	updated, err = s.titleService.Update(s.admin, title.ID, service.TitlePatch{
		Genres:   &genres,
		Category: strPtr(""),
	})
	s.Require().NoError(err)
	assert.Nil(s.T(), updated.CategoryID)
	assert.Len(s.T(), updated.Genres(), 2)

	_, err = s.titleService.Update(s.admin, title.ID, service.TitlePatch{Year: intPtr(1200)})
	assert.ErrorIs(s.T(), err, apperror.ErrValidation)

	_, err = s.titleService.Update(s.admin, 9999, service.TitlePatch{Name: strPtr("x")})
	assert.ErrorIs(s.T(), err, apperror.ErrNotFound)
}

func (s *CatalogServiceIntegrationTestSuite) TestTitleDelete_CascadesReviewsAndComments() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Ikiru", 1952, nil, testutil.CreateGenre(s.T(), s.testDB.DB, "Drama", "drama"))
	author := testutil.CreateUser(s.T(), s.testDB.DB, "critic", models.RoleUser)
	review := testutil.CreateReview(s.T(), s.testDB.DB, author, title, 9)
	testutil.CreateComment(s.T(), s.testDB.DB, author, review, "agreed")

	s.Require().NoError(s.titleService.Delete(s.admin, title.ID))

	for model, name := range map[interface{}]string{
		&models.Review{}:     "reviews",
		&models.Comment{}:    "comments",
		&models.TitleGenre{}: "title_genres",
	} {
		var count int64
		s.testDB.DB.Model(model).Count(&count)
		assert.Zero(s.T(), count, "%s should be empty", name)
	}

	assert.ErrorIs(s.T(), s.titleService.Delete(s.admin, title.ID), apperror.ErrNotFound)
}

func TestCatalogServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceIntegrationTestSuite))
}
