package recipe

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/krailo/recipe-api/internal/auth"
	"github.com/krailo/recipe-api/internal/httputil"
	"github.com/krailo/recipe-api/internal/logging"
)

// TagRequest represents a tag create/update body. Name is a pointer so
// PATCH can tell an absent name from a blank one.
type TagRequest struct {
	Name *string `json:"name"`
}

// ListTags returns the caller's tags
// @Summary      List tags
// @Tags         tag
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} TagResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /recipe/tags/ [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	tags, err := h.service.ListTags(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list tags", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list tags", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	items := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		items = append(items, TagResponse{ID: t.ID, Name: t.Name})
	}

	httputil.RespondJSON(w, items, http.StatusOK)
}

// CreateTag stores a new tag owned by the caller
// @Summary      Create a tag
// @Tags         tag
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body TagRequest true "Tag name"
// @Success      201 {object} TagResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /recipe/tags/ [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tag request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	created, err := h.service.CreateTag(r.Context(), userID, name)
	if err != nil {
		h.respondError(w, logger, err, "create tag")
		return
	}

	logger.Info("tag created successfully", "tag_id", created.ID)

	httputil.RespondJSON(w, TagResponse{ID: created.ID, Name: created.Name}, http.StatusCreated)
}

// GetTag returns one tag
// @Summary      Get a tag
// @Tags         tag
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tag id"
// @Success      200 {object} TagResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/tags/{id} [get]
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tag, err := h.service.GetTag(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, logger, err, "get tag")
		return
	}

	httputil.RespondJSON(w, TagResponse{ID: tag.ID, Name: tag.Name}, http.StatusOK)
}

// ReplaceTag renames one tag (name required)
// @Summary      Replace a tag
// @Tags         tag
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tag id"
// @Param        request body TagRequest true "Tag name"
// @Success      200 {object} TagResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/tags/{id} [put]
func (h *Handler) ReplaceTag(w http.ResponseWriter, r *http.Request) {
	h.updateTag(w, r, h.service.ReplaceTag)
}

// PatchTag renames one tag when a name is supplied
// @Summary      Patch a tag
// @Tags         tag
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tag id"
// @Param        request body TagRequest true "Fields to change"
// @Success      200 {object} TagResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/tags/{id} [patch]
func (h *Handler) PatchTag(w http.ResponseWriter, r *http.Request) {
	h.updateTag(w, r, h.service.PatchTag)
}

func (h *Handler) updateTag(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, id int64, name *string) (*Tag, error)) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tag request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := op(r.Context(), userID, id, req.Name)
	if err != nil {
		h.respondError(w, logger, err, "update tag")
		return
	}

	httputil.RespondJSON(w, TagResponse{ID: updated.ID, Name: updated.Name}, http.StatusOK)
}

// DeleteTag removes one tag, detaching it from any recipes
// @Summary      Delete a tag
// @Tags         tag
// @Security     BearerAuth
// @Param        id path int true "Tag id"
// @Success      204
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/tags/{id} [delete]
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTag(r.Context(), userID, id); err != nil {
		h.respondError(w, logger, err, "delete tag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
