package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

// Entry is a lançamento: one financial transaction. Settled entries are
// immutable for reporting purposes; editing them would rewrite history the
// DRE has already reported on.
type Entry struct {
	ID             int              `gorm:"primary_key" json:"id"`
	CompanyId      int              `gorm:"index;not null" json:"company_id" binding:"required"`
	ProjectId      int              `gorm:"index" json:"project_id"`
	CounterpartyId int              `gorm:"index" json:"counterparty_id"`
	SubcategoryId  int              `gorm:"index;not null" json:"subcategory_id" binding:"required"`
	Description    string           `gorm:"size:500" json:"description"`
	DocumentNumber string           `gorm:"size:100" json:"document_number"`
	GrossAmount    decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"gross_amount"`
	NetAmount      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"net_amount"`
	DueDate        time.Time        `gorm:"index;not null" json:"due_date" binding:"required"`
	SettlementDate *time.Time       `gorm:"index" json:"settlement_date"`
	Settled        *bool            `gorm:"not null;default:false" json:"settled"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEntry struct {
	CompanyId      int              `json:"company_id" binding:"required"`
	ProjectId      int              `json:"project_id"`
	CounterpartyId int              `json:"counterparty_id"`
	SubcategoryId  int              `json:"subcategory_id" binding:"required"`
	Description    string           `json:"description"`
	DocumentNumber string           `json:"document_number"`
	GrossAmount    decimal.Decimal  `json:"gross_amount"`
	NetAmount      *decimal.Decimal `json:"net_amount"`
	DueDate        time.Time        `json:"due_date" binding:"required"`
}

// Amount is the reporting amount: net when present, gross otherwise.
func (e *Entry) Amount() decimal.Decimal {
	if e.NetAmount != nil {
		return *e.NetAmount
	}
	return e.GrossAmount
}

// ReferenceDate prefers the settlement date over the due date.
func (e *Entry) ReferenceDate() time.Time {
	if e.SettlementDate != nil {
		return *e.SettlementDate
	}
	return e.DueDate
}

func (e *Entry) IsSettled() bool {
	return e.Settled != nil && *e.Settled
}

func (input *NewEntry) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Company](ctx, input.CompanyId); err != nil {
		return errors.New("company not found")
	}
	if input.ProjectId > 0 {
		if err := utils.ValidateResourceId[Project](ctx, input.ProjectId); err != nil {
			return errors.New("project not found")
		}
	}
	if input.CounterpartyId > 0 {
		if err := utils.ValidateResourceId[Counterparty](ctx, input.CounterpartyId); err != nil {
			return errors.New("counterparty not found")
		}
	}
	if err := utils.ValidateResourceId[AccountSubcategory](ctx, input.SubcategoryId); err != nil {
		return errors.New("account subcategory not found")
	}
	return nil
}

func (input *NewEntry) mapInput(e *Entry) {
	e.CompanyId = input.CompanyId
	e.ProjectId = input.ProjectId
	e.CounterpartyId = input.CounterpartyId
	e.SubcategoryId = input.SubcategoryId
	e.Description = input.Description
	e.DocumentNumber = input.DocumentNumber
	e.GrossAmount = input.GrossAmount
	e.NetAmount = input.NetAmount
	e.DueDate = input.DueDate
}

func CreateEntry(ctx context.Context, input *NewEntry) (*Entry, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	entry := Entry{Settled: utils.NewFalse()}
	input.mapInput(&entry)

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func UpdateEntry(ctx context.Context, id int, input *NewEntry) (*Entry, error) {
	entry, err := GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsSettled() {
		return nil, errors.New("settled entry cannot be edited")
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	input.mapInput(entry)
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// SettleEntry marks an entry settled on the given date.
func SettleEntry(ctx context.Context, id int, settlementDate time.Time) (*Entry, error) {
	entry, err := GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsSettled() {
		return nil, errors.New("entry is already settled")
	}

	entry.Settled = utils.NewTrue()
	entry.SettlementDate = &settlementDate
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func DeleteEntry(ctx context.Context, id int) error {
	entry, err := GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if entry.IsSettled() {
		return errors.New("settled entry cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(entry).Error
}

func GetEntry(ctx context.Context, id int) (*Entry, error) {
	var result Entry
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// ListSettledEntries fetches all settled entries for the optional company
// and project filters. Period filtering happens in memory at the report
// layer, against whichever of settlement date or due date is present.
func ListSettledEntries(ctx context.Context, companyId int, projectId int) ([]*Entry, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("settled = ?", true)
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	if projectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", projectId)
	}

	var results []*Entry
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func ListEntries(ctx context.Context, companyId int, projectId int, limit int, offset int) ([]*Entry, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Order("due_date DESC, id DESC")
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	if projectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", projectId)
	}
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit).Offset(offset)
	}

	var results []*Entry
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
