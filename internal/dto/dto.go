// Package dto holds the JSON shapes returned by the API.
package dto

import (
	"time"

	"github.com/Baaaki/yamdb/internal/models"
)

// Operation selects the response shape of a resource.
// Read operations embed related objects, write operations echo identifiers.
type Operation int

const (
	OpList Operation = iota
	OpRetrieve
	OpCreate
	OpUpdate
)

// Read reports whether op returns the read shape.
func (op Operation) Read() bool {
	return op == OpList || op == OpRetrieve
}

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromCategory(c *models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}

func FromGenre(g *models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}

// TitleReadResponse is returned by list and retrieve. Rating is null without reviews.
type TitleReadResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *int              `json:"rating"`
	Description *string           `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

// TitleWriteResponse is returned by create and update. It never carries a rating.
type TitleWriteResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre"`
	Category    *string  `json:"category"`
}

// Title renders t in the shape op calls for. rating is ignored for writes.
func Title(op Operation, t *models.Title, rating *int) interface{} {
	genres := t.Genres()

	if !op.Read() {
		out := TitleWriteResponse{
			ID:          t.ID,
			Name:        t.Name,
			Year:        t.Year,
			Description: t.Description,
			Genre:       make([]string, 0, len(genres)),
		}
		for _, g := range genres {
			out.Genre = append(out.Genre, g.Slug)
		}
		if t.Category != nil {
			slug := t.Category.Slug
			out.Category = &slug
		}
		return out
	}

	out := TitleReadResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       make([]GenreResponse, 0, len(genres)),
	}
	for i := range genres {
		out.Genre = append(out.Genre, FromGenre(&genres[i]))
	}
	if t.Category != nil {
		category := FromCategory(t.Category)
		out.Category = &category
	}
	return out
}

type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func FromReview(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  authorName(r.Author),
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func FromComment(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  authorName(c.Author),
		PubDate: c.PubDate,
	}
}

func authorName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

type UserResponse struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
