package models

import (
	"context"
	"errors"
	"time"

	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

// The chart of accounts (plano de contas) is a fixed 4-level hierarchy:
// AccountType -> AccountGroup -> AccountCategory -> AccountSubcategory.
// Entries attach at the subcategory level and resolve upward through the
// chain for reporting.

type AccountType struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type AccountGroup struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	TypeId       int       `gorm:"index;not null" json:"type_id" binding:"required"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type AccountCategory struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	GroupId      int       `gorm:"index;not null" json:"group_id" binding:"required"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type AccountSubcategory struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	CategoryId   int       `gorm:"index;not null" json:"category_id" binding:"required"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccountType struct {
	Name         string `json:"name" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

type NewAccountGroup struct {
	Name         string `json:"name" binding:"required"`
	TypeId       int    `json:"type_id" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

type NewAccountCategory struct {
	Name         string `json:"name" binding:"required"`
	GroupId      int    `json:"group_id" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

type NewAccountSubcategory struct {
	Name         string `json:"name" binding:"required"`
	CategoryId   int    `json:"category_id" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

// ChartOfAccounts bundles the four lookup tables; small enough to fetch
// whole and join in memory.
type ChartOfAccounts struct {
	Types         []*AccountType        `json:"types"`
	Groups        []*AccountGroup       `json:"groups"`
	Categories    []*AccountCategory    `json:"categories"`
	Subcategories []*AccountSubcategory `json:"subcategories"`
}

func GetChartOfAccounts(ctx context.Context) (*ChartOfAccounts, error) {
	db := config.GetDB()
	var chart ChartOfAccounts

	if err := db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&chart.Types).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&chart.Groups).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&chart.Categories).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&chart.Subcategories).Error; err != nil {
		return nil, err
	}
	return &chart, nil
}

func CreateAccountType(ctx context.Context, input *NewAccountType) (*AccountType, error) {
	if err := utils.ValidateUnique[AccountType](ctx, "name", input.Name, 0); err != nil {
		return nil, errors.New("account type name already exists")
	}
	record := AccountType{Name: input.Name, DisplayOrder: input.DisplayOrder}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateAccountType(ctx context.Context, id int, input *NewAccountType) (*AccountType, error) {
	var record AccountType
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := utils.ValidateUnique[AccountType](ctx, "name", input.Name, id); err != nil {
		return nil, errors.New("account type name already exists")
	}
	record.Name = input.Name
	record.DisplayOrder = input.DisplayOrder
	if err := db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func DeleteAccountType(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[AccountType](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[AccountGroup](ctx, "type_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("account type has groups and cannot be deleted")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&AccountType{}, id).Error
}

func CreateAccountGroup(ctx context.Context, input *NewAccountGroup) (*AccountGroup, error) {
	if err := utils.ValidateResourceId[AccountType](ctx, input.TypeId); err != nil {
		return nil, errors.New("account type not found")
	}
	record := AccountGroup{Name: input.Name, TypeId: input.TypeId, DisplayOrder: input.DisplayOrder}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateAccountGroup(ctx context.Context, id int, input *NewAccountGroup) (*AccountGroup, error) {
	var record AccountGroup
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := utils.ValidateResourceId[AccountType](ctx, input.TypeId); err != nil {
		return nil, errors.New("account type not found")
	}
	record.Name = input.Name
	record.TypeId = input.TypeId
	record.DisplayOrder = input.DisplayOrder
	if err := db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func DeleteAccountGroup(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[AccountGroup](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[AccountCategory](ctx, "group_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("account group has categories and cannot be deleted")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&AccountGroup{}, id).Error
}

func CreateAccountCategory(ctx context.Context, input *NewAccountCategory) (*AccountCategory, error) {
	if err := utils.ValidateResourceId[AccountGroup](ctx, input.GroupId); err != nil {
		return nil, errors.New("account group not found")
	}
	record := AccountCategory{Name: input.Name, GroupId: input.GroupId, DisplayOrder: input.DisplayOrder}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateAccountCategory(ctx context.Context, id int, input *NewAccountCategory) (*AccountCategory, error) {
	var record AccountCategory
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := utils.ValidateResourceId[AccountGroup](ctx, input.GroupId); err != nil {
		return nil, errors.New("account group not found")
	}
	record.Name = input.Name
	record.GroupId = input.GroupId
	record.DisplayOrder = input.DisplayOrder
	if err := db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func DeleteAccountCategory(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[AccountCategory](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[AccountSubcategory](ctx, "category_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("account category has subcategories and cannot be deleted")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&AccountCategory{}, id).Error
}

func CreateAccountSubcategory(ctx context.Context, input *NewAccountSubcategory) (*AccountSubcategory, error) {
	if err := utils.ValidateResourceId[AccountCategory](ctx, input.CategoryId); err != nil {
		return nil, errors.New("account category not found")
	}
	record := AccountSubcategory{Name: input.Name, CategoryId: input.CategoryId, DisplayOrder: input.DisplayOrder}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateAccountSubcategory(ctx context.Context, id int, input *NewAccountSubcategory) (*AccountSubcategory, error) {
	var record AccountSubcategory
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := utils.ValidateResourceId[AccountCategory](ctx, input.CategoryId); err != nil {
		return nil, errors.New("account category not found")
	}
	record.Name = input.Name
	record.CategoryId = input.CategoryId
	record.DisplayOrder = input.DisplayOrder
	if err := db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func DeleteAccountSubcategory(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[AccountSubcategory](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Entry](ctx, "subcategory_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("account subcategory has entries and cannot be deleted")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&AccountSubcategory{}, id).Error
}
