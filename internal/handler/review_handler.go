package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-gonic/gin"
)

// ReviewHandler serves reviews and the comments nested under them.
type ReviewHandler struct {
	reviewService  *service.ReviewService
	commentService *service.CommentService
}

func NewReviewHandler(reviewService *service.ReviewService, commentService *service.CommentService) *ReviewHandler {
	return &ReviewHandler{
		reviewService:  reviewService,
		commentService: commentService,
	}
}

type CreateReviewRequest struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type UpdateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type UpdateCommentRequest struct {
	Text *string `json:"text"`
}

// ListReviews GET /titles/:title_id/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	titleID, err := idParam(c, "title_id", "title")
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reviews, total, err := h.reviewService.List(middleware.ActorFrom(c), titleID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(dto.Map(reviews, dto.FromReview), total, page, pageSize))
}

// CreateReview POST /titles/:title_id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	titleID, err := idParam(c, "title_id", "title")
	if err != nil {
		respondError(c, err)
		return
	}

	var req CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(middleware.ActorFrom(c), titleID, req.Text, req.Score)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromReview(review))
}

// GetReview GET /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	titleID, reviewID, ok := h.reviewPath(c)
	if !ok {
		return
	}

	review, err := h.reviewService.Get(middleware.ActorFrom(c), titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromReview(review))
}

// UpdateReview PATCH /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	titleID, reviewID, ok := h.reviewPath(c)
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Update(middleware.ActorFrom(c), titleID, reviewID, service.ReviewPatch{
		Text:  req.Text,
		Score: req.Score,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromReview(review))
}

// DeleteReview DELETE /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	titleID, reviewID, ok := h.reviewPath(c)
	if !ok {
		return
	}

	if err := h.reviewService.Delete(middleware.ActorFrom(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListComments GET /titles/:title_id/reviews/:review_id/comments
func (h *ReviewHandler) ListComments(c *gin.Context) {
	titleID, reviewID, ok := h.reviewPath(c)
	if !ok {
		return
	}
	page, pageSize, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	comments, total, err := h.commentService.List(middleware.ActorFrom(c), titleID, reviewID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(dto.Map(comments, dto.FromComment), total, page, pageSize))
}

// CreateComment POST /titles/:title_id/reviews/:review_id/comments
func (h *ReviewHandler) CreateComment(c *gin.Context) {
	titleID, reviewID, ok := h.reviewPath(c)
	if !ok {
		return
	}

	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(middleware.ActorFrom(c), titleID, reviewID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromComment(comment))
}

// GetComment GET /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *ReviewHandler) GetComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := h.commentPath(c)
	if !ok {
		return
	}

	comment, err := h.commentService.Get(middleware.ActorFrom(c), titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromComment(comment))
}

// UpdateComment PATCH /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *ReviewHandler) UpdateComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := h.commentPath(c)
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Update(middleware.ActorFrom(c), titleID, reviewID, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromComment(comment))
}

// DeleteComment DELETE /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *ReviewHandler) DeleteComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := h.commentPath(c)
	if !ok {
		return
	}

	if err := h.commentService.Delete(middleware.ActorFrom(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReviewHandler) reviewPath(c *gin.Context) (uint, uint, bool) {
	titleID, err := idParam(c, "title_id", "title")
	if err != nil {
		respondError(c, err)
		return 0, 0, false
	}
	reviewID, err := idParam(c, "review_id", "review")
	if err != nil {
		respondError(c, err)
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func (h *ReviewHandler) commentPath(c *gin.Context) (uint, uint, uint, bool) {
	titleID, reviewID, ok := h.reviewPath(c)
	if !ok {
		return 0, 0, 0, false
	}
	commentID, err := idParam(c, "comment_id", "comment")
	if err != nil {
		respondError(c, err)
		return 0, 0, 0, false
	}
	return titleID, reviewID, commentID, true
}
