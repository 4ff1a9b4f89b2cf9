package server

import (
	"strings"

	"sharify/internal/service"

	"github.com/gofiber/fiber/v2"
)

// createResourceRequest accepts JSON or multipart form fields. In a form,
// tags arrive comma separated.
type createResourceRequest struct {
	Title        string   `json:"title" form:"title"`
	Description  string   `json:"description" form:"description"`
	Content      string   `json:"content" form:"content"`
	ResourceType string   `json:"resource_type" form:"resource_type"`
	Link         string   `json:"link" form:"link"`
	Link2        string   `json:"link2" form:"link2"`
	Link3        string   `json:"link3" form:"link3"`
	Tags         []string `json:"tags" form:"-"`
	TagList      string   `json:"-" form:"tags"`
	Author       string   `json:"author" form:"author"`
}

// GetResources handles GET /api/resources
// @Summary List study resources, newest first
// @Tags resources
// @Produce json
// @Success 200 {array} models.Resource
// @Router /resources [get]
func (s *Server) GetResources(c *fiber.Ctx) error {
	resources, err := s.resourceService.ListResources(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resources)
}

// GetResource handles GET /api/resources/:id
// @Summary Get one resource
// @Tags resources
// @Produce json
// @Param id path int true "Resource ID"
// @Success 200 {object} models.Resource
// @Failure 404 {object} models.ErrorResponse
// @Router /resources/{id} [get]
func (s *Server) GetResource(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	resource, err := s.resourceService.GetResource(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resource)
}

// CreateResource handles POST /api/resources
// @Summary Submit a study resource
// @Description Admins only unless open resource submissions are enabled. An optional file is stored in the resources bucket.
// @Tags resources
// @Security BearerAuth
// @Accept json,multipart/form-data
// @Param request body createResourceRequest true "Resource"
// @Param file formData file false "Attachment"
// @Success 201 {object} models.Resource
// @Failure 403 {object} models.ErrorResponse
// @Router /resources [post]
func (s *Server) CreateResource(c *fiber.Ctx) error {
	var req createResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}
	if req.TagList != "" {
		req.Tags = append(req.Tags, strings.Split(req.TagList, ",")...)
	}

	in := service.CreateResourceInput{
		UserID:       currentUserID(c),
		Title:        req.Title,
		Description:  req.Description,
		Content:      req.Content,
		ResourceType: req.ResourceType,
		Link:         req.Link,
		Link2:        req.Link2,
		Link3:        req.Link3,
		Tags:         req.Tags,
		Author:       req.Author,
	}
	if fh, err := c.FormFile("file"); err == nil {
		content, err := readFormFile(fh, s.config.MaxUploadBytes())
		if err != nil {
			return respondError(c, err)
		}
		in.File = &service.ResourceFile{Name: fh.Filename, Content: content}
	}

	resource, err := s.resourceService.CreateResource(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resource)
}
