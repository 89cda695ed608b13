package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/dto"
	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/usecase"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

type IVideoDurationHandler interface {
	Resolve(ctx *gin.Context)
	RecalculateMissing(ctx *gin.Context)
	RecalculateAll(ctx *gin.Context)
	ListRuns(ctx *gin.Context)
	Healthz(ctx *gin.Context)
}

type VideoDurationHandler struct {
	extractor usecase.IMetadataExtractor
	resolver  usecase.IDurationResolver
	batch     usecase.IBatchRecalculator
	audit     repository.IRecalculationAudit
	cache     repository.IDurationCache
}

// NewVideoDurationHandler accepts a nil batch when no content store is
// available; the recalculation routes then answer 503.
func NewVideoDurationHandler(
	extractor usecase.IMetadataExtractor,
	resolver usecase.IDurationResolver,
	batch usecase.IBatchRecalculator,
	audit repository.IRecalculationAudit,
	cache repository.IDurationCache,
) IVideoDurationHandler {
	if cache == nil {
		cache = repository.NewNoopDurationCache()
	}
	return &VideoDurationHandler{
		extractor: extractor,
		resolver:  resolver,
		batch:     batch,
		audit:     audit,
		cache:     cache,
	}
}

func (h *VideoDurationHandler) Resolve(ctx *gin.Context) {
	var req dto.ResolveDurationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		ctx.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}

	descriptor, err := h.extractor.Extract(req.Content)
	if err == nil {
		var result *model.DurationResult
		result, err = h.resolver.ResolveDescriptor(ctx.Request.Context(), descriptor, usecase.ResolveOptions{BypassCache: req.BypassCache})
		if err == nil {
			ctx.JSON(http.StatusOK, dto.ResolveDurationResponse{
				ExternalID: descriptor.ExternalID,
				Seconds:    result.Seconds,
				Source:     string(result.Source),
				ResolvedAt: result.ResolvedAt.Format(time.RFC3339),
				FromCache:  result.FromCache,
			})
			return
		}
	}

	if errors.Is(err, model.ErrExtractionFailure) {
		ctx.JSON(http.StatusUnprocessableEntity, dto.Res{ResponseCode: "422", ResponseMessage: err.Error()})
		return
	}
	logger.GetLogger().WithField("error", err).Error("Error while resolving duration")
	ctx.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal server error"})
}

func (h *VideoDurationHandler) RecalculateMissing(ctx *gin.Context) {
	h.recalculate(ctx, model.RecalculateOnlyMissing)
}

func (h *VideoDurationHandler) RecalculateAll(ctx *gin.Context) {
	h.recalculate(ctx, model.RecalculateForceAll)
}

func (h *VideoDurationHandler) recalculate(ctx *gin.Context, mode model.RecalculationMode) {
	if h.batch == nil {
		ctx.JSON(http.StatusServiceUnavailable, dto.Res{ResponseCode: "503", ResponseMessage: "Video content store not configured"})
		return
	}

	summary, err := h.batch.Run(ctx.Request.Context(), mode)
	if err != nil {
		logger.GetLogger().WithField("mode", mode).WithField("error", err).Error("Error while recalculating durations")
		ctx.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

func (h *VideoDurationHandler) ListRuns(ctx *gin.Context) {
	if h.audit == nil {
		ctx.JSON(http.StatusOK, []model.RecalculationSummary{})
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	runs, err := h.audit.ListRuns(ctx.Request.Context(), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while listing recalculation runs")
		ctx.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, runs)
}

// Healthz never fails on a missing cache; resolution works without it.
func (h *VideoDurationHandler) Healthz(ctx *gin.Context) {
	c, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	cacheStatus := "down"
	if h.cache.Healthy(c) {
		cacheStatus = "up"
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "cache": cacheStatus})
}
