package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/krailo/recipe-api/internal/auth"
	"github.com/krailo/recipe-api/internal/httputil"
	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/validation"
)

// Handler contains HTTP handlers for the recipe and tag endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// TagInput is a tag reference in a recipe payload
type TagInput struct {
	Name string `json:"name"`
}

// RecipeRequest represents a recipe create/update body. Pointer fields
// distinguish "absent" from "zero" for partial updates.
type RecipeRequest struct {
	Title       *string     `json:"title"`
	TimeMinutes *int        `json:"time_minutes"`
	Price       *float64    `json:"price"`
	Description *string     `json:"description"`
	Link        *string     `json:"link"`
	Tags        *[]TagInput `json:"tags"`
}

// RecipeListItem is the list-view shape (no description, no tags)
type RecipeListItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Link        string  `json:"link"`
}

// RecipeDetail is the detail-view shape
type RecipeDetail struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	TimeMinutes int           `json:"time_minutes"`
	Price       float64       `json:"price"`
	Link        string        `json:"link"`
	Description string        `json:"description"`
	Tags        []TagResponse `json:"tags"`
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (req *RecipeRequest) toInput() Input {
	in := Input{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Description: req.Description,
		Link:        req.Link,
	}
	if req.Tags != nil {
		names := make([]string, 0, len(*req.Tags))
		for _, t := range *req.Tags {
			names = append(names, t.Name)
		}
		in.Tags = &names
	}
	return in
}

func toDetail(rec *Recipe) RecipeDetail {
	tags := make([]TagResponse, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		tags = append(tags, TagResponse{ID: t.ID, Name: t.Name})
	}
	return RecipeDetail{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price,
		Link:        rec.Link,
		Description: rec.Description,
		Tags:        tags,
	}
}

// List returns the caller's recipes
// @Summary      List recipes
// @Tags         recipe
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} RecipeListItem
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /recipe/ [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	recipes, err := h.service.List(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list recipes", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list recipes", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	items := make([]RecipeListItem, 0, len(recipes))
	for _, rec := range recipes {
		items = append(items, RecipeListItem{
			ID:          rec.ID,
			Title:       rec.Title,
			TimeMinutes: rec.TimeMinutes,
			Price:       rec.Price,
			Link:        rec.Link,
		})
	}

	httputil.RespondJSON(w, items, http.StatusOK)
}

// Create stores a new recipe owned by the caller
// @Summary      Create a recipe
// @Tags         recipe
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RecipeRequest true "Recipe fields"
// @Success      201 {object} RecipeDetail
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /recipe/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid recipe request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		h.respondError(w, logger, err, "create recipe")
		return
	}

	logger.Info("recipe created successfully", "recipe_id", created.ID)

	httputil.RespondJSON(w, toDetail(created), http.StatusCreated)
}

// Get returns one recipe with its tags
// @Summary      Get a recipe
// @Tags         recipe
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Recipe id"
// @Success      200 {object} RecipeDetail
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	rec, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, logger, err, "get recipe")
		return
	}

	httputil.RespondJSON(w, toDetail(rec), http.StatusOK)
}

// Replace fully updates one recipe
// @Summary      Replace a recipe
// @Tags         recipe
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Recipe id"
// @Param        request body RecipeRequest true "Recipe fields"
// @Success      200 {object} RecipeDetail
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/{id} [put]
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.Replace)
}

// Patch partially updates one recipe
// @Summary      Patch a recipe
// @Description  Update only the supplied fields. A present tags key replaces the tag set; an empty list clears it.
// @Tags         recipe
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Recipe id"
// @Param        request body RecipeRequest true "Fields to change"
// @Success      200 {object} RecipeDetail
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/{id} [patch]
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.Patch)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, id int64, in Input) (*Recipe, error)) {
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

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid recipe request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := op(r.Context(), userID, id, req.toInput())
	if err != nil {
		h.respondError(w, logger, err, "update recipe")
		return
	}

	httputil.RespondJSON(w, toDetail(updated), http.StatusOK)
}

// Delete removes one recipe
// @Summary      Delete a recipe
// @Tags         recipe
// @Security     BearerAuth
// @Param        id path int true "Recipe id"
// @Success      204
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /recipe/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.respondError(w, logger, err, "delete recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondError maps service errors to HTTP responses. Foreign-owned
// resources surface as 404, never 403.
func (h *Handler) respondError(w http.ResponseWriter, logger *logging.Logger, err error, op string) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		logger.Warn(op+" failed: validation error", "fields", verr.Error())
		httputil.RespondValidationError(w, verr.Fields)
		return
	}
	if errors.Is(err, ErrNotFound) {
		logger.Warn(op + " failed: not found")
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}
	logger.Error(op+" failed: internal error", "error", err.Error())
	httputil.RespondErrorWithCode(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
}

// parseID reads the {id} route param. A non-numeric id is reported as 404,
// same as a missing row.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return 0, false
	}
	return id, true
}
