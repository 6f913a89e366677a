package models

import (
	"context"
	"errors"
	"time"

	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

type Company struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	LegalName string    `gorm:"size:255" json:"legal_name"`
	Cnpj      string    `gorm:"size:20;index" json:"cnpj"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name      string `json:"name" binding:"required"`
	LegalName string `json:"legal_name"`
	Cnpj      string `json:"cnpj"`
	IsActive  *bool  `json:"is_active"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewCompany) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Company](ctx, "name", input.Name, id); err != nil {
		return errors.New("company name already exists")
	}
	return nil
}

func (input *NewCompany) mapInput(c *Company) {
	c.Name = input.Name
	c.LegalName = input.LegalName
	c.Cnpj = input.Cnpj
	if input.IsActive != nil {
		c.IsActive = input.IsActive
	}
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	company := Company{IsActive: utils.NewTrue()}
	input.mapInput(&company)

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func UpdateCompany(ctx context.Context, id int, input *NewCompany) (*Company, error) {
	company, err := GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	input.mapInput(company)
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

func DeleteCompany(ctx context.Context, id int) error {
	company, err := GetCompany(ctx, id)
	if err != nil {
		return err
	}

	count, err := utils.ResourceCountWhere[Entry](ctx, "company_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("company has entries and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(company).Error
}

func GetCompany(ctx context.Context, id int) (*Company, error) {
	var result Company
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func ListCompanies(ctx context.Context) ([]*Company, error) {
	var results []*Company
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
