package handler

import (
	"context"
	"net/http"
	"strconv"

	"saveai-api/common"
	"saveai-api/model"

	"github.com/google/uuid"
)

type IAnalyticsService interface {
	SpendingPatterns(ctx context.Context, userID uuid.UUID, days int) (*model.SpendingAnalysis, error)
	Insights(ctx context.Context, userID uuid.UUID) ([]model.Insight, error)
}

type AnalyticsHandler struct {
	service IAnalyticsService
}

func NewAnalyticsHandler(s IAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: s}
}

// SpendingPatterns godoc
// @Summary      Spending analysis
// @Description  Category totals, trends against the previous window and recurring charges.
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        days     query  int     false  "Window length in days (1-365)"  default(30)
// @Param        user_id  query  string  false  "User to analyze (admin only)"
// @Success      200  {object}  common.Envelope{data=model.SpendingAnalysis}
// @Failure      400  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Router       /api/v1/analytics/spending [get]
func (h *AnalyticsHandler) SpendingPatterns(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		var err error
		if days, err = strconv.Atoi(v); err != nil {
			return common.NewAppError(http.StatusBadRequest, "Invalid days parameter", err)
		}
	}

	userID, appErr := targetUser(r, caller)
	if appErr != nil {
		return appErr
	}

	analysis, err := h.service.SpendingPatterns(r.Context(), userID, days)
	if err != nil {
		return serviceError(err, "Could not analyze spending")
	}

	common.Respond(w, http.StatusOK, analysis)
	return nil
}

// Insights godoc
// @Summary      Spending insights
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query  string  false  "User to analyze (admin only)"
// @Success      200  {object}  common.Envelope{data=[]model.Insight}
// @Failure      403  {object}  common.AppError
// @Router       /api/v1/analytics/insights [get]
func (h *AnalyticsHandler) Insights(w http.ResponseWriter, r *http.Request) *common.AppError {
	caller, appErr := callerFrom(r)
	if appErr != nil {
		return appErr
	}

	userID, appErr := targetUser(r, caller)
	if appErr != nil {
		return appErr
	}

	insights, err := h.service.Insights(r.Context(), userID)
	if err != nil {
		return serviceError(err, "Could not compute insights")
	}

	common.Respond(w, http.StatusOK, insights)
	return nil
}
