package testutil

import (
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/utils"
	"gorm.io/gorm"
)

// TestJWTSecret signs tokens in handler and middleware tests.
const TestJWTSecret = "test-secret-key"

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateSuperuser inserts a superuser whose role is plain "user".
func CreateSuperuser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Role:        models.RoleUser,
		IsSuperuser: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create superuser %s: %v", username, err)
	}
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category %s: %v", slug, err)
	}
	return category
}

func CreateGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	t.Helper()
	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("Failed to create genre %s: %v", slug, err)
	}
	return genre
}

// CreateTitle inserts a title in the given category (may be nil) linked to genres.
func CreateTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	for _, g := range genres {
		id := g.ID
		title.GenreLinks = append(title.GenreLinks, models.TitleGenre{GenreID: &id})
	}
	if err := db.Create(title).Error; err != nil {
		t.Fatalf("Failed to create title %s: %v", name, err)
	}
	return title
}

func CreateReview(t *testing.T, db *gorm.DB, author *models.User, title *models.Title, score int) *models.Review {
	t.Helper()
	review := &models.Review{
		Text:     "review by " + author.Username,
		Score:    score,
		AuthorID: author.ID,
		TitleID:  title.ID,
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("Failed to create review: %v", err)
	}
	return review
}

func CreateComment(t *testing.T, db *gorm.DB, author *models.User, review *models.Review, text string) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Text:     text,
		AuthorID: author.ID,
		ReviewID: review.ID,
	}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment
}

// TokenFor issues a bearer token for user signed with TestJWTSecret.
func TokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}
