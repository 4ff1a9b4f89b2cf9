package repository

import (
	"context"

	"sharify/internal/cache"
	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/querykeys"

	"gorm.io/gorm"
)

// ResourceRepository stores curated preparation resources.
type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	List(ctx context.Context) ([]*models.Resource, error)
	GetByID(ctx context.Context, id uint) (*models.Resource, error)
}

type resourceRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewResourceRepository returns a gorm-backed ResourceRepository.
func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db, log: observability.NewRepoLogger("resources")}
}

func (r *resourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"resource_id": resource.ID, "type": string(resource.ResourceType)})
	return nil
}

func (r *resourceRepository) List(ctx context.Context) ([]*models.Resource, error) {
	var resources []*models.Resource
	err := cache.Aside(ctx, querykeys.ResourcesKey(), &resources, func(ctx context.Context) ([]*models.Resource, error) {
		out := []*models.Resource{}
		if err := readDB(r.db).WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return out, nil
	})
	return resources, err
}

func (r *resourceRepository) GetByID(ctx context.Context, id uint) (*models.Resource, error) {
	var resource models.Resource
	err := cache.Aside(ctx, querykeys.ResourceKey(id), &resource, func(ctx context.Context) (models.Resource, error) {
		var out models.Resource
		err := readDB(r.db).WithContext(ctx).First(&out, id).Error
		return out, notFound(err, "Resource", id)
	})
	if err != nil {
		return nil, err
	}
	return &resource, nil
}
