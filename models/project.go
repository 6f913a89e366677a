package models

import (
	"context"
	"errors"
	"time"

	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

// Project is a cost-center node; ParentId of zero means a root project.
type Project struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	CompanyId int       `gorm:"index;not null" json:"company_id" binding:"required"`
	ParentId  int       `gorm:"index" json:"parent_id"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProject struct {
	Name      string `json:"name" binding:"required"`
	CompanyId int    `json:"company_id" binding:"required"`
	ParentId  int    `json:"parent_id"`
	IsActive  *bool  `json:"is_active"`
}

func (input *NewProject) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Company](ctx, input.CompanyId); err != nil {
		return errors.New("company not found")
	}
	if input.ParentId > 0 {
		if input.ParentId == id {
			return errors.New("project cannot be its own parent")
		}
		if err := utils.ValidateResourceId[Project](ctx, input.ParentId); err != nil {
			return errors.New("parent project not found")
		}
	}
	return nil
}

func (input *NewProject) mapInput(p *Project) {
	p.Name = input.Name
	p.CompanyId = input.CompanyId
	p.ParentId = input.ParentId
	if input.IsActive != nil {
		p.IsActive = input.IsActive
	}
}

func CreateProject(ctx context.Context, input *NewProject) (*Project, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	project := Project{IsActive: utils.NewTrue()}
	input.mapInput(&project)

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func UpdateProject(ctx context.Context, id int, input *NewProject) (*Project, error) {
	project, err := GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	input.mapInput(project)
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func DeleteProject(ctx context.Context, id int) error {
	project, err := GetProject(ctx, id)
	if err != nil {
		return err
	}

	count, err := utils.ResourceCountWhere[Project](ctx, "parent_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("project has sub-projects and cannot be deleted")
	}
	count, err = utils.ResourceCountWhere[Entry](ctx, "project_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("project has entries and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(project).Error
}

func GetProject(ctx context.Context, id int) (*Project, error) {
	var result Project
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func ListProjects(ctx context.Context, companyId int) ([]*Project, error) {
	var results []*Project
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Order("name ASC")
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
