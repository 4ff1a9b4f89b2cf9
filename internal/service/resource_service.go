package service

import (
	"context"
	"strings"

	"sharify/internal/models"
	"sharify/internal/querykeys"
	"sharify/internal/repository"
	"sharify/internal/validation"
)

// ResourceService lists curated resources and lets admins submit new ones.
type ResourceService struct {
	resources repository.ResourceRepository
	media     *MediaService
	canSubmit func(ctx context.Context, userID uint) (bool, error)
	publisher ChangePublisher
}

// ResourceFile is an optional attachment uploaded with a resource.
type ResourceFile struct {
	Name    string
	Content []byte
}

type CreateResourceInput struct {
	UserID       uint          `json:"-"`
	Title        string        `json:"title" validate:"required,max=300"`
	Description  string        `json:"description" validate:"required,max=2000"`
	Content      string        `json:"content" validate:"required,max=50000"`
	ResourceType string        `json:"resource_type" validate:"required,resource_type"`
	Link         string        `json:"link" validate:"omitempty,url"`
	Link2        string        `json:"link2" validate:"omitempty,url"`
	Link3        string        `json:"link3" validate:"omitempty,url"`
	Tags         []string      `json:"tags" validate:"max=20,dive,max=50"`
	Author       string        `json:"author" validate:"max=200"`
	File         *ResourceFile `json:"-"`
}

// NewResourceService builds the service. canSubmit decides whether a user
// may create resources.
func NewResourceService(
	resources repository.ResourceRepository,
	media *MediaService,
	canSubmit func(ctx context.Context, userID uint) (bool, error),
	publisher ChangePublisher,
) *ResourceService {
	return &ResourceService{resources: resources, media: media, canSubmit: canSubmit, publisher: publisherOrNoop(publisher)}
}

func (s *ResourceService) ListResources(ctx context.Context) ([]*models.Resource, error) {
	return s.resources.List(ctx)
}

func (s *ResourceService) GetResource(ctx context.Context, id uint) (*models.Resource, error) {
	return s.resources.GetByID(ctx, id)
}

func (s *ResourceService) CreateResource(ctx context.Context, in CreateResourceInput) (*models.Resource, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	if s.canSubmit != nil {
		allowed, err := s.canSubmit(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, models.NewForbiddenError("Admin access required")
		}
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Content = strings.TrimSpace(in.Content)
	in.Author = strings.TrimSpace(in.Author)
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	resource := &models.Resource{
		Title:        in.Title,
		Description:  in.Description,
		Content:      in.Content,
		ResourceType: models.ResourceType(in.ResourceType),
		Link:         in.Link,
		Link2:        in.Link2,
		Link3:        in.Link3,
		Tags:         in.Tags,
		Author:       in.Author,
		CreatedByID:  in.UserID,
	}
	if in.File != nil && len(in.File.Content) > 0 {
		if s.media == nil {
			return nil, models.NewValidationError("File uploads are not enabled")
		}
		obj, err := s.media.UploadResourceFile(ctx, in.File.Name, in.File.Content)
		if err != nil {
			return nil, err
		}
		resource.FileURL = obj.URL
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityResource, ResourceID: resource.ID})
	return resource, nil
}
