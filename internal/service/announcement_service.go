package service

import (
	"context"
	"fmt"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

type AnnouncementService struct {
	announcementRepo *repository.AnnouncementRepository
}

func NewAnnouncementService(db *gorm.DB) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: repository.NewAnnouncementRepository(db),
	}
}

func (s *AnnouncementService) Create(ctx context.Context, adminID int64, title, content string) (*model.Announcement, error) {
	announcement := &model.Announcement{
		Title:     title,
		Content:   content,
		CreatedBy: adminID,
	}
	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("创建公告失败: %w", err)
	}
	return announcement, nil
}

func (s *AnnouncementService) List(ctx context.Context) ([]*model.Announcement, error) {
	return s.announcementRepo.List(ctx)
}
