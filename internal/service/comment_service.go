package service

import (
	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

type CommentService struct {
	commentRepo *repository.CommentRepository
	reviewRepo  *repository.ReviewRepository
	titleRepo   *repository.TitleRepository
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	reviewRepo *repository.ReviewRepository,
	titleRepo *repository.TitleRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		titleRepo:   titleRepo,
	}
}

func (s *CommentService) List(actor policy.Actor, titleID, reviewID uint, page, pageSize int) ([]models.Comment, int64, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.ResourceComment, nil); err != nil {
		return nil, 0, err
	}
	if err := s.ensureReview(titleID, reviewID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.commentRepo.ListByReview(reviewID, page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list comments", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *CommentService) Create(actor policy.Actor, titleID, reviewID uint, text string) (*models.Comment, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceComment, nil); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}
	if err := s.ensureReview(titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     text,
		AuthorID: actor.UserID,
		ReviewID: reviewID,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		logger.Log.Error("Failed to create comment", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
		zap.String("author", actor.Username),
	)
	return s.load(titleID, reviewID, comment.ID)
}

func (s *CommentService) Get(actor policy.Actor, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if err := policy.Authorize(actor, policy.ActionRetrieve, policy.ResourceComment, nil); err != nil {
		return nil, err
	}
	return s.load(titleID, reviewID, commentID)
}

func (s *CommentService) Update(actor policy.Actor, titleID, reviewID, commentID uint, text *string) (*models.Comment, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	comment, err := s.load(titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceComment, &comment.AuthorID); err != nil {
		logger.Log.Warn("Comment update denied", zap.Uint("comment_id", commentID), zap.String("actor", actor.Username))
		return nil, err
	}

	if text != nil {
		comment.Text = *text
	}
	if err := validateText(comment.Text); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Update(comment); err != nil {
		logger.Log.Error("Failed to update comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Comment updated", zap.Uint("comment_id", commentID), zap.String("by", actor.Username))
	return s.load(titleID, reviewID, commentID)
}

func (s *CommentService) Delete(actor policy.Actor, titleID, reviewID, commentID uint) error {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return err
	}

	comment, err := s.load(titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceComment, &comment.AuthorID); err != nil {
		logger.Log.Warn("Comment delete denied", zap.Uint("comment_id", commentID), zap.String("actor", actor.Username))
		return err
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		logger.Log.Error("Failed to delete comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return err
	}

	logger.Log.Info("Comment deleted", zap.Uint("comment_id", commentID), zap.String("by", actor.Username))
	return nil
}

// ensureReview checks that the title exists and the review belongs to it.
func (s *CommentService) ensureReview(titleID, reviewID uint) error {
	exists, err := s.titleRepo.Exists(titleID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("title", uintKey(titleID))
	}

	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return apperror.NotFound("review", uintKey(reviewID))
	}
	return nil
}

func (s *CommentService) load(titleID, reviewID, commentID uint) (*models.Comment, error) {
	if err := s.ensureReview(titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(reviewID, commentID)
	if err != nil {
		logger.Log.Error("Failed to get comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return nil, err
	}
	if comment == nil {
		return nil, apperror.NotFound("comment", uintKey(commentID))
	}
	return comment, nil
}
