package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"sharify/internal/config"
	"sharify/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validResource = map[string]any{
	"title":         "Striver SDE sheet",
	"description":   "180 problems",
	"content":       "Work through one topic a day.",
	"resource_type": "Link",
	"link":          "https://takeuforward.org",
	"tags":          []string{" dsa ", ""},
}

func TestCreateResource_AdminOnly(t *testing.T) {
	env := setupServer(t)
	member, _ := env.signIn("member@example.com", "Member")
	admin, adminID := env.signIn("admin@example.com", "Admin")
	env.makeAdmin(adminID)

	env.getJSON(http.MethodPost, "/api/resources", member, validResource, http.StatusForbidden, nil)

	var created models.Resource
	env.getJSON(http.MethodPost, "/api/resources", admin, validResource, http.StatusCreated, &created)
	assert.Equal(t, []string{"dsa"}, created.Tags)
	assert.Equal(t, adminID, created.CreatedByID)

	var list []models.Resource
	env.getJSON(http.MethodGet, "/api/resources", "", nil, http.StatusOK, &list)
	require.Len(t, list, 1)

	var one models.Resource
	env.getJSON(http.MethodGet, urlf("/api/resources/%d", created.ID), "", nil, http.StatusOK, &one)
	assert.Equal(t, "Striver SDE sheet", one.Title)
	env.getJSON(http.MethodGet, "/api/resources/77", "", nil, http.StatusNotFound, nil)
}

func TestCreateResource_OpenSubmissionsFlag(t *testing.T) {
	env := setupServer(t, func(c *config.Config) { c.FeatureFlags = "open_resource_submissions=on" })
	member, _ := env.signIn("member@example.com", "Member")

	env.getJSON(http.MethodPost, "/api/resources", member, validResource, http.StatusCreated, nil)

	bad := map[string]any{"title": "x", "description": "y", "content": "z", "resource_type": "Podcast"}
	env.getJSON(http.MethodPost, "/api/resources", member, bad, http.StatusBadRequest, nil)
}

func TestCreateResource_MultipartWithFile(t *testing.T) {
	env := setupServer(t)
	admin, adminID := env.signIn("admin@example.com", "Admin")
	env.makeAdmin(adminID)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title": "OS notes", "description": "Short notes", "content": "Paging, scheduling",
		"resource_type": "Note", "tags": "os, notes",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", "os notes.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# Paging\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/resources", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	status, raw := env.send(req)
	require.Equal(t, http.StatusCreated, status, string(raw))

	assert.Contains(t, string(raw), `"file_url":"http://localhost:8375/media/resources/`)
	assert.Contains(t, string(raw), `"tags":["os","notes"]`)
}
