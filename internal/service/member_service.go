package service

import (
	"context"
	"fmt"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

// MemberDetail 成员详情（含余额）
type MemberDetail struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Alive    bool   `json:"alive"`
	Balance  int64  `json:"balance"`
}

type MemberService struct {
	memberRepo  *repository.MemberRepository
	accountRepo *repository.AccountRepository
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{
		memberRepo:  repository.NewMemberRepository(db),
		accountRepo: repository.NewAccountRepository(db),
	}
}

// GetDetail 成员详情，账户不存在时顺带建好（余额 0）
func (s *MemberService) GetDetail(ctx context.Context, memberID int64) (*MemberDetail, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetOrCreate(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("获取账户失败: %w", err)
	}

	return &MemberDetail{
		ID:       member.ID,
		Username: member.Username,
		Email:    member.Email,
		Role:     member.Role,
		Alive:    member.Alive,
		Balance:  account.Balance,
	}, nil
}

// ListAvengers 队员花名册（指挥官视图）
func (s *MemberService) ListAvengers(ctx context.Context) ([]*MemberDetail, error) {
	members, err := s.memberRepo.ListByRole(ctx, model.RoleAvenger)
	if err != nil {
		return nil, err
	}

	details := make([]*MemberDetail, 0, len(members))
	for _, m := range members {
		account, err := s.accountRepo.GetOrCreate(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("获取账户失败: %w", err)
		}
		details = append(details, &MemberDetail{
			ID:       m.ID,
			Username: m.Username,
			Email:    m.Email,
			Role:     m.Role,
			Alive:    m.Alive,
			Balance:  account.Balance,
		})
	}
	return details, nil
}
