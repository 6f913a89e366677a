package models

import (
	"context"
	"errors"
	"time"

	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

// Counterparty is a favorecido: anyone the business pays or receives from.
type Counterparty struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Document    string    `gorm:"size:20;index" json:"document"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:30" json:"phone"`
	BankDetails string    `gorm:"type:text" json:"bank_details"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCounterparty struct {
	Name        string `json:"name" binding:"required"`
	Document    string `json:"document"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BankDetails string `json:"bank_details"`
	Notes       string `json:"notes"`
}

func (input *NewCounterparty) validate(ctx context.Context, id int) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	if err := utils.ValidateUnique[Counterparty](ctx, "name", input.Name, id); err != nil {
		return errors.New("counterparty name already exists")
	}
	return nil
}

func (input *NewCounterparty) mapInput(c *Counterparty) {
	c.Name = input.Name
	c.Document = input.Document
	c.Email = input.Email
	c.Phone = input.Phone
	c.BankDetails = input.BankDetails
	c.Notes = input.Notes
}

func CreateCounterparty(ctx context.Context, input *NewCounterparty) (*Counterparty, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	var counterparty Counterparty
	input.mapInput(&counterparty)

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&counterparty).Error; err != nil {
		return nil, err
	}
	return &counterparty, nil
}

func UpdateCounterparty(ctx context.Context, id int, input *NewCounterparty) (*Counterparty, error) {
	counterparty, err := GetCounterparty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	input.mapInput(counterparty)
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(counterparty).Error; err != nil {
		return nil, err
	}
	return counterparty, nil
}

func DeleteCounterparty(ctx context.Context, id int) error {
	counterparty, err := GetCounterparty(ctx, id)
	if err != nil {
		return err
	}

	count, err := utils.ResourceCountWhere[Entry](ctx, "counterparty_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("counterparty has entries and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(counterparty).Error
}

func GetCounterparty(ctx context.Context, id int) (*Counterparty, error) {
	var result Counterparty
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func ListCounterparties(ctx context.Context) ([]*Counterparty, error) {
	var results []*Counterparty
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
