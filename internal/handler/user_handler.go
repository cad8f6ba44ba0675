package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type CreateUserRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

type UpdateUserRequest struct {
	Username  *string      `json:"username"`
	Email     *string      `json:"email"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role"`
}

func (r UpdateUserRequest) patch() service.UserPatch {
	return service.UserPatch{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}

// List GET /users?search=
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	users, total, err := h.userService.List(middleware.ActorFrom(c), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(dto.Map(users, dto.FromUser), total, page, pageSize))
}

// Create POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(middleware.ActorFrom(c), service.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Get GET /users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(middleware.ActorFrom(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// Update PATCH /users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(middleware.ActorFrom(c), c.Param("username"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// Delete DELETE /users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(middleware.ActorFrom(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// UpdateMe PATCH /users/me. The role field is ignored.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateMe(middleware.ActorFrom(c), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// MeNotAllowed answers POST and DELETE on /users/me, which the profile
// resource does not support.
func (h *UserHandler) MeNotAllowed(c *gin.Context) {
	action := policy.ActionCreate
	if c.Request.Method == http.MethodDelete {
		action = policy.ActionDelete
	}

	logger.Log.Debug("Unsupported profile method",
		zap.String("method", c.Request.Method),
		zap.String("ip", c.ClientIP()),
	)
	respondError(c, policy.Authorize(middleware.ActorFrom(c), action, policy.ResourceProfile, nil))
}
