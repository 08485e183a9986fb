package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/orchestrator"
	"github.com/alvesdmateus/image-builder/internal/queue"
	"github.com/alvesdmateus/image-builder/internal/state"
)

// defaultPageSize bounds list responses
const defaultPageSize = 50

// BuildHandler handles build endpoints
type BuildHandler struct {
	repo   *state.Repository
	engine *orchestrator.Engine
}

// NewBuildHandler creates a new build handler
func NewBuildHandler(repo *state.Repository, engine *orchestrator.Engine) *BuildHandler {
	return &BuildHandler{repo: repo, engine: engine}
}

// EnqueueBuild queues a new image build
func (h *BuildHandler) EnqueueBuild(w http.ResponseWriter, r *http.Request) {
	var req EnqueueBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ProjectDir == "" {
		RespondWithError(w, http.StatusBadRequest, "project_dir is required")
		return
	}

	payload := &queue.BuildPayload{
		ProjectDir:        req.ProjectDir,
		Dockerfile:        req.Dockerfile,
		ContextPath:       req.ContextPath,
		Tags:              req.Tags,
		Labels:            req.Labels,
		BuildArgs:         req.BuildArgs,
		Platforms:         req.Platforms,
		Outputs:           req.Outputs,
		EngineOptions:     req.EngineOptions,
		Engine:            req.Engine,
		GenerateMetadata:  req.GenerateMetadata,
		MetadataGenerator: req.MetadataGenerator,
		MetadataRulesFile: req.MetadataRulesFile,
	}

	jobID, err := h.engine.EnqueueBuildJob(r.Context(), payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue build")
		RespondWithError(w, http.StatusInternalServerError, "Failed to enqueue build")
		return
	}

	RespondWithJSON(w, http.StatusAccepted, EnqueueBuildResponse{JobID: jobID})
}

// ListBuilds lists recorded builds, newest first
func (h *BuildHandler) ListBuilds(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= defaultPageSize {
			limit = parsed
		}
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	builds, err := h.repo.ListBuilds(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list builds")
		RespondWithError(w, http.StatusInternalServerError, "Failed to list builds")
		return
	}

	responses := make([]BuildResponse, 0, len(builds))
	for i := range builds {
		responses = append(responses, toBuildResponse(&builds[i]))
	}

	RespondWithJSON(w, http.StatusOK, responses)
}

// GetBuild returns one build record by id
func (h *BuildHandler) GetBuild(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid build ID")
		return
	}

	build, err := h.repo.GetBuild(r.Context(), id)
	if err != nil {
		if errors.Is(err, state.ErrBuildNotFound) {
			RespondWithError(w, http.StatusNotFound, "Build not found")
			return
		}
		log.Error().Err(err).Str("buildID", id.String()).Msg("Failed to get build")
		RespondWithError(w, http.StatusInternalServerError, "Failed to get build")
		return
	}

	RespondWithJSON(w, http.StatusOK, toBuildResponse(build))
}
