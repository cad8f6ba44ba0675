package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	titleService *service.TitleService
}

func NewTitleHandler(titleService *service.TitleService) *TitleHandler {
	return &TitleHandler{
		titleService: titleService,
	}
}

// CreateTitleRequest references category and genres by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// nullableString records whether a field was sent, so an explicit null can
// be told apart from an omitted field.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// UpdateTitleRequest is a partial update. "category": "" detaches the category
// and "description": null clears the description.
type UpdateTitleRequest struct {
	Name        *string        `json:"name"`
	Year        *int           `json:"year"`
	Description nullableString `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

// List GET /titles?category=&genre=&name=&year=
func (h *TitleHandler) List(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperror.Validation("year", "year must be an integer"))
			return
		}
		filter.Year = &year
	}

	titles, total, err := h.titleService.List(middleware.ActorFrom(c), filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]interface{}, 0, len(titles))
	for _, t := range titles {
		results = append(results, dto.Title(dto.OpList, t.Title, t.Rating))
	}
	c.JSON(http.StatusOK, dto.NewPage(results, total, page, pageSize))
}

// Create POST /titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req CreateTitleRequest
	if !bindJSON(c, &req) {
		return
	}

	title, err := h.titleService.Create(middleware.ActorFrom(c), service.TitleInput{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Title(dto.OpCreate, title, nil))
}

// Get GET /titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, err := idParam(c, "title_id", "title")
	if err != nil {
		respondError(c, err)
		return
	}

	title, err := h.titleService.Get(middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Title(dto.OpRetrieve, title.Title, title.Rating))
}

// Update PATCH /titles/:title_id
func (h *TitleHandler) Update(c *gin.Context) {
	id, err := idParam(c, "title_id", "title")
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateTitleRequest
	if !bindJSON(c, &req) {
		return
	}

	title, err := h.titleService.Update(middleware.ActorFrom(c), id, service.TitlePatch{
		Name:             req.Name,
		Year:             req.Year,
		Description:      req.Description.Value,
		ClearDescription: req.Description.Set && req.Description.Value == nil,
		Category:         req.Category,
		Genres:           req.Genre,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Title(dto.OpUpdate, title, nil))
}

// Delete DELETE /titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "title_id", "title")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.titleService.Delete(middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
