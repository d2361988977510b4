package service

import (
	"context"

	"fareflow/internal/domain"
	"fareflow/internal/repository"
)

// AccountService handles card account operations outside the fare flow.
type AccountService struct {
	accountRepo   repository.AccountRepository
	notifications *NotificationService
	followUps     followUps
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo repository.AccountRepository, notifications *NotificationService) *AccountService {
	return &AccountService{
		accountRepo:   accountRepo,
		notifications: notifications,
	}
}

// GetAccount returns the account of a card.
func (s *AccountService) GetAccount(ctx context.Context, cardUID string) (*domain.CardAccount, error) {
	if cardUID == "" {
		return nil, ErrInvalidCardUID
	}

	return s.accountRepo.GetByCardUID(ctx, cardUID)
}

// AddFunds credits a top-up and sends the balance-load notification in the background.
func (s *AccountService) AddFunds(ctx context.Context, cardUID string, amount int64) (*domain.CardAccount, error) {
	if cardUID == "" {
		return nil, ErrInvalidCardUID
	}

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.accountRepo.AddFunds(ctx, cardUID, amount)
	if err != nil {
		return nil, err
	}

	s.followUps.Go("top-up notification", func(ctx context.Context) error {
		return s.notifications.NotifyTopUp(ctx, account, amount)
	})

	return account, nil
}

// Wait blocks until pending notifications have been handed off.
func (s *AccountService) Wait() {
	s.followUps.Wait()
}
