package repository

import (
	"context"

	"github.com/makerloop/commerce-backend/internal/model"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Project, error)
	Save(ctx context.Context, p *model.Project) error
}

type projectRepository struct {
	db *gorm.DB
}

func (r *projectRepository) FindByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Save(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}
