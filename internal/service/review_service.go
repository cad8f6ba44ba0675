package service

import (
	"fmt"
	"strconv"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// ReviewPatch is a partial update; nil fields are left unchanged.
type ReviewPatch struct {
	Text  *string
	Score *int
}

type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	titleRepo  *repository.TitleRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, titleRepo *repository.TitleRepository) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

func (s *ReviewService) List(actor policy.Actor, titleID uint, page, pageSize int) ([]models.Review, int64, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.ResourceReview, nil); err != nil {
		return nil, 0, err
	}
	if err := s.ensureTitle(titleID); err != nil {
		return nil, 0, err
	}

	reviews, total, err := s.reviewRepo.ListByTitle(titleID, page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list reviews", zap.Uint("title_id", titleID), zap.Error(err))
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) Create(actor policy.Actor, titleID uint, text string, score int) (*models.Review, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceReview, nil); err != nil {
		return nil, err
	}
	if err := validateReview(text, score); err != nil {
		logger.Log.Warn("Review validation failed",
			zap.Uint("title_id", titleID),
			zap.Int("score", score),
			zap.Error(err),
		)
		return nil, err
	}
	if err := s.ensureTitle(titleID); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsByAuthorAndTitle(actor.UserID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Log.Warn("Duplicate review rejected",
			zap.String("author", actor.Username),
			zap.Uint("title_id", titleID),
		)
		return nil, duplicateReview()
	}

	review := &models.Review{
		Text:     text,
		Score:    score,
		AuthorID: actor.UserID,
		TitleID:  titleID,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		logger.Log.Warn("Failed to create review", zap.Uint("title_id", titleID), zap.Error(err))
		return nil, duplicateAsConflict(err, "title", duplicateReviewMessage)
	}

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.String("author", actor.Username),
		zap.Int("score", score),
	)
	return s.load(titleID, review.ID)
}

func (s *ReviewService) Get(actor policy.Actor, titleID, reviewID uint) (*models.Review, error) {
	if err := policy.Authorize(actor, policy.ActionRetrieve, policy.ResourceReview, nil); err != nil {
		return nil, err
	}
	return s.load(titleID, reviewID)
}

func (s *ReviewService) Update(actor policy.Actor, titleID, reviewID uint, patch ReviewPatch) (*models.Review, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	review, err := s.load(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceReview, &review.AuthorID); err != nil {
		logger.Log.Warn("Review update denied",
			zap.Uint("review_id", reviewID),
			zap.String("actor", actor.Username),
		)
		return nil, err
	}

	if patch.Text != nil {
		review.Text = *patch.Text
	}
	if patch.Score != nil {
		review.Score = *patch.Score
	}
	if err := validateReview(review.Text, review.Score); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Update(review); err != nil {
		logger.Log.Error("Failed to update review", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Review updated", zap.Uint("review_id", reviewID), zap.String("by", actor.Username))
	return s.load(titleID, reviewID)
}

func (s *ReviewService) Delete(actor policy.Actor, titleID, reviewID uint) error {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return err
	}

	review, err := s.load(titleID, reviewID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceReview, &review.AuthorID); err != nil {
		logger.Log.Warn("Review delete denied",
			zap.Uint("review_id", reviewID),
			zap.String("actor", actor.Username),
		)
		return err
	}

	if err := s.reviewRepo.Delete(reviewID); err != nil {
		logger.Log.Error("Failed to delete review", zap.Uint("review_id", reviewID), zap.Error(err))
		return err
	}

	logger.Log.Info("Review deleted", zap.Uint("review_id", reviewID), zap.String("by", actor.Username))
	return nil
}

func (s *ReviewService) ensureTitle(titleID uint) error {
	exists, err := s.titleRepo.Exists(titleID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("title", uintKey(titleID))
	}
	return nil
}

func (s *ReviewService) load(titleID, reviewID uint) (*models.Review, error) {
	if err := s.ensureTitle(titleID); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		logger.Log.Error("Failed to get review", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, err
	}
	if review == nil {
		return nil, apperror.NotFound("review", uintKey(reviewID))
	}
	return review, nil
}

const duplicateReviewMessage = "you have already reviewed this title"

func duplicateReview() error {
	return apperror.Conflict("title", duplicateReviewMessage)
}

func validateReview(text string, score int) error {
	if err := validateText(text); err != nil {
		return err
	}
	if score < models.MinScore {
		return apperror.Validation("score", fmt.Sprintf("score must be at least %d", models.MinScore))
	}
	if score > models.MaxScore {
		return apperror.Validation("score", fmt.Sprintf("score must be at most %d", models.MaxScore))
	}
	return nil
}

func uintKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
