package store

import (
	"fmt"

	"gorm.io/gorm"

	"akses-bot/internal/models"
)

// Store is the durable record of purchase attempts.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateTransaction inserts a new pending transaction.
func (s *Store) CreateTransaction(orderID string, userID int64, amount int) error {
	tx := models.Transaction{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Status:  models.StatusPending,
	}
	if err := s.db.Create(&tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction %s: %w", orderID, err)
	}
	return nil
}

// GetTransaction returns gorm.ErrRecordNotFound when the order id is unknown.
func (s *Store) GetTransaction(orderID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("order_id = ?", orderID).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// MarkPaid flips a pending transaction to paid and reports whether the update
// applied. The single conditional UPDATE is the guard against duplicate
// webhook deliveries: only one caller ever sees true for a given order id.
func (s *Store) MarkPaid(orderID string) (bool, error) {
	result := s.db.Model(&models.Transaction{}).
		Where("order_id = ? AND status = ?", orderID, models.StatusPending).
		Update("status", models.StatusPaid)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark transaction %s paid: %w", orderID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListDistinctUserIDs returns every user that ever started a purchase.
func (s *Store) ListDistinctUserIDs() ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.Transaction{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}
