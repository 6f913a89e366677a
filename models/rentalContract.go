package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
	"gorm.io/gorm"
)

// RentalContract tracks a recurring rental obligation. Installments are
// materialized rows so each one can be settled independently and carry its
// own linked entry.
type RentalContract struct {
	ID             int                    `gorm:"primary_key" json:"id"`
	CompanyId      int                    `gorm:"index;not null" json:"company_id" binding:"required"`
	CounterpartyId int                    `gorm:"index;not null" json:"counterparty_id" binding:"required"`
	SubcategoryId  int                    `gorm:"index;not null" json:"subcategory_id" binding:"required"`
	ProjectId      int                    `gorm:"index" json:"project_id"`
	Description    string                 `gorm:"size:500" json:"description"`
	MonthlyAmount  decimal.Decimal        `gorm:"type:decimal(20,4);default:0" json:"monthly_amount"`
	StartDate      time.Time              `gorm:"not null" json:"start_date" binding:"required"`
	EndDate        time.Time              `gorm:"not null" json:"end_date" binding:"required"`
	DueDay         int                    `gorm:"default:5" json:"due_day"`
	IsActive       *bool                  `gorm:"not null;default:true" json:"is_active"`
	Installments   []*ContractInstallment `gorm:"foreignKey:ContractId" json:"installments,omitempty"`
	CreatedAt      time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

type ContractInstallment struct {
	ID         int             `gorm:"primary_key" json:"id"`
	ContractId int             `gorm:"index;not null" json:"contract_id"`
	Number     int             `gorm:"not null" json:"number"`
	DueDate    time.Time       `gorm:"index;not null" json:"due_date"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Paid       *bool           `gorm:"not null;default:false" json:"paid"`
	PaidDate   *time.Time      `json:"paid_date"`
	EntryId    int             `gorm:"index" json:"entry_id"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRentalContract struct {
	CompanyId      int             `json:"company_id" binding:"required"`
	CounterpartyId int             `json:"counterparty_id" binding:"required"`
	SubcategoryId  int             `json:"subcategory_id" binding:"required"`
	ProjectId      int             `json:"project_id"`
	Description    string          `json:"description"`
	MonthlyAmount  decimal.Decimal `json:"monthly_amount"`
	StartDate      time.Time       `json:"start_date" binding:"required"`
	EndDate        time.Time       `json:"end_date" binding:"required"`
	DueDay         int             `json:"due_day"`
}

func (input *NewRentalContract) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Company](ctx, input.CompanyId); err != nil {
		return errors.New("company not found")
	}
	if err := utils.ValidateResourceId[Counterparty](ctx, input.CounterpartyId); err != nil {
		return errors.New("counterparty not found")
	}
	if err := utils.ValidateResourceId[AccountSubcategory](ctx, input.SubcategoryId); err != nil {
		return errors.New("account subcategory not found")
	}
	if input.ProjectId > 0 {
		if err := utils.ValidateResourceId[Project](ctx, input.ProjectId); err != nil {
			return errors.New("project not found")
		}
	}
	if !input.EndDate.After(input.StartDate) {
		return errors.New("end date must be after start date")
	}
	if input.DueDay < 0 || input.DueDay > 28 {
		return errors.New("due day must be between 1 and 28")
	}
	return nil
}

// CreateRentalContract stores the contract and materializes one
// installment per month between start and end date (inclusive of the
// start month), all inside one transaction.
func CreateRentalContract(ctx context.Context, input *NewRentalContract) (*RentalContract, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	dueDay := input.DueDay
	if dueDay == 0 {
		dueDay = 5
	}

	contract := RentalContract{
		CompanyId:      input.CompanyId,
		CounterpartyId: input.CounterpartyId,
		SubcategoryId:  input.SubcategoryId,
		ProjectId:      input.ProjectId,
		Description:    input.Description,
		MonthlyAmount:  input.MonthlyAmount,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		DueDay:         dueDay,
		IsActive:       utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		contract.Installments = generateInstallments(&contract)
		for _, installment := range contract.Installments {
			if err := tx.Create(installment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// generateInstallments produces one installment per calendar month from
// the start month through the end month, due on the contract's due day.
func generateInstallments(contract *RentalContract) []*ContractInstallment {
	var installments []*ContractInstallment
	cursor := time.Date(contract.StartDate.Year(), contract.StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(contract.EndDate.Year(), contract.EndDate.Month(), 1, 0, 0, 0, 0, time.UTC)

	number := 1
	for !cursor.After(last) {
		due := time.Date(cursor.Year(), cursor.Month(), contract.DueDay, 0, 0, 0, 0, time.UTC)
		installments = append(installments, &ContractInstallment{
			ContractId: contract.ID,
			Number:     number,
			DueDate:    due,
			Amount:     contract.MonthlyAmount,
			Paid:       utils.NewFalse(),
		})
		cursor = cursor.AddDate(0, 1, 0)
		number++
	}
	return installments
}

// PayInstallment marks an installment paid and records a settled entry
// for it, linking the two, inside one transaction.
func PayInstallment(ctx context.Context, installmentId int, paidDate time.Time) (*ContractInstallment, error) {
	db := config.GetDB()

	var installment ContractInstallment
	if err := db.WithContext(ctx).First(&installment, installmentId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if installment.Paid != nil && *installment.Paid {
		return nil, errors.New("installment is already paid")
	}

	var contract RentalContract
	if err := db.WithContext(ctx).First(&contract, installment.ContractId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := Entry{
			CompanyId:      contract.CompanyId,
			ProjectId:      contract.ProjectId,
			CounterpartyId: contract.CounterpartyId,
			SubcategoryId:  contract.SubcategoryId,
			Description:    contract.Description,
			GrossAmount:    installment.Amount,
			DueDate:        installment.DueDate,
			SettlementDate: &paidDate,
			Settled:        utils.NewTrue(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		installment.Paid = utils.NewTrue()
		installment.PaidDate = &paidDate
		installment.EntryId = entry.ID
		return tx.Save(&installment).Error
	})
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func GetRentalContract(ctx context.Context, id int) (*RentalContract, error) {
	var result RentalContract
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Installments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("number ASC")
	}).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func ListRentalContracts(ctx context.Context, companyId int) ([]*RentalContract, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Order("start_date DESC")
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}

	var results []*RentalContract
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func DeleteRentalContract(ctx context.Context, id int) error {
	contract, err := GetRentalContract(ctx, id)
	if err != nil {
		return err
	}
	for _, installment := range contract.Installments {
		if installment.Paid != nil && *installment.Paid {
			return errors.New("contract has paid installments and cannot be deleted")
		}
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", id).Delete(&ContractInstallment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&RentalContract{}, id).Error
	})
}
