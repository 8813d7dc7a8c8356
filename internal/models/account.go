package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAccountNotFound is returned when a referenced account does not exist.
var ErrAccountNotFound = errors.New("there is no account for the ID you specified")

// Account represents a wallet account holder.
type Account struct {
	DefaultModel
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BeforeSave trims whitespace from all strings.
func (a *Account) BeforeSave(_ *gorm.DB) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)

	return nil
}

// AccountExists reports whether an account with the ID exists.
func AccountExists(db *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&Account{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Category represents a spending category owned by an account.
type Category struct {
	DefaultModel
	AccountID uuid.UUID `json:"accountId"`
	Account   Account   `json:"-"`
	Name      string    `json:"name"`
}

// BeforeSave trims whitespace from all strings.
func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)

	return nil
}

// CategoryBelongsTo reports whether the category exists and is owned by the account.
func CategoryBelongsTo(db *gorm.DB, categoryID, accountID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&Category{}).
		Where("id = ? AND account_id = ?", categoryID, accountID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
