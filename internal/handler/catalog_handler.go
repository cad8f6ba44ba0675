package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHandler serves categories and genres, which share one shape.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

type CatalogEntryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListCategories GET /categories?search=
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	categories, total, err := h.catalogService.ListCategories(c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(dto.Map(categories, dto.FromCategory), total, page, pageSize))
}

// CreateCategory POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CatalogEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(middleware.ActorFrom(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCategory(category))
}

// DeleteCategory DELETE /categories/:slug
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.catalogService.DeleteCategory(middleware.ActorFrom(c), slug); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Debug("Category delete served", zap.String("slug", slug))
	c.Status(http.StatusNoContent)
}

// ListGenres GET /genres?search=
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	genres, total, err := h.catalogService.ListGenres(c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(dto.Map(genres, dto.FromGenre), total, page, pageSize))
}

// CreateGenre POST /genres
func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var req CatalogEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	genre, err := h.catalogService.CreateGenre(middleware.ActorFrom(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromGenre(genre))
}

// DeleteGenre DELETE /genres/:slug
func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.catalogService.DeleteGenre(middleware.ActorFrom(c), slug); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Debug("Genre delete served", zap.String("slug", slug))
	c.Status(http.StatusNoContent)
}
