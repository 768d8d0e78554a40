package service

import (
	"context"
	"fmt"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: repository.NewFeedbackRepository(db),
	}
}

func (s *FeedbackService) Submit(ctx context.Context, memberID int64, content string) (*model.Feedback, error) {
	feedback := &model.Feedback{
		MemberID: memberID,
		Content:  content,
	}
	if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
		return nil, fmt.Errorf("提交反馈失败: %w", err)
	}
	return feedback, nil
}

func (s *FeedbackService) List(ctx context.Context) ([]*model.Feedback, error) {
	return s.feedbackRepo.List(ctx)
}

func (s *FeedbackService) MarkRead(ctx context.Context, id int64) error {
	return s.feedbackRepo.MarkRead(ctx, id)
}
