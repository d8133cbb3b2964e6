package api

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"ecocausal/app"
	"ecocausal/domain/causal"
	"ecocausal/domain/core"
	"ecocausal/internal"
	"ecocausal/internal/errors"
	"ecocausal/models"
	"ecocausal/ports"
)

const defaultHistoryLimit = 50

// Handler holds the decoded-request entry points for every operation
type Handler struct {
	service  *app.AnalysisService
	renderer ports.ReportRenderer
	validate *validator.Validate
	logger   *internal.Logger
}

// NewHandler creates the API handler set. Validation errors report JSON
// field names, not Go struct names.
func NewHandler(service *app.AnalysisService, renderer ports.ReportRenderer, logger *internal.Logger) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		service:  service,
		renderer: renderer,
		validate: v,
		logger:   logger.Component("API"),
	}
}

// errorResponse is the JSON envelope for every failed request
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	var req models.CorrelateRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Correlate(r.Context(), req.Series1, req.Series2)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleMatrix(w http.ResponseWriter, r *http.Request) {
	var req models.MatrixRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Matrix(r.Context(), req.Series)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleLag(w http.ResponseWriter, r *http.Request) {
	var req models.LagRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.LagSweep(r.Context(), req.Driver, req.Response, req.MaxLag, req.LagUnit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleMultiLag(w http.ResponseWriter, r *http.Request) {
	var req models.MultiLagRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.MultiDriverLags(r.Context(), req.Drivers, req.Response, req.MaxLag, req.LagUnit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleSeasonality(w http.ResponseWriter, r *http.Request) {
	var req models.SeasonalityRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Seasonality(r.Context(), req.Series)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleRegression(w http.ResponseWriter, r *http.Request) {
	var req models.RegressionRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Regression(r.Context(), req.Target, req.Predictors)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleGranger(w http.ResponseWriter, r *http.Request) {
	var req models.GrangerRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Granger(r.Context(), req.Cause, req.Effect, req.MaxLag)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleHypothesisTest(w http.ResponseWriter, r *http.Request) {
	var req models.HypothesisRequest
	if !h.decode(w, r, &req) {
		return
	}
	hypothesis := causal.Hypothesis{
		Name:              req.Name,
		CauseID:           req.Cause.ID,
		EffectID:          req.Effect.ID,
		ExpectedDirection: req.ExpectedDirection,
		ExpectedLag:       req.ExpectedLag,
		Description:       req.Description,
	}
	result, err := h.service.TestHypothesis(r.Context(), hypothesis, req.Cause, req.Effect)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleDrivers(w http.ResponseWriter, r *http.Request) {
	var req models.DriversRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.AnalyzeDrivers(r.Context(), req.Target, req.Drivers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req models.ScreenRequest
	if !h.decode(w, r, &req) {
		return
	}
	results, err := h.service.ScreenDrivers(r.Context(), req.Targets, req.Drivers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"results": results,
	})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.AnalyzeDrivers(r.Context(), req.Target, req.Drivers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.Format == "html" {
		page, err := h.renderer.RenderHTML(result)
		if err != nil {
			h.writeError(w, r, errors.Wrap(err, "report rendering failed"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(h.renderer.RenderMarkdown(result)))
}

func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, r, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	records, err := h.service.History(r.Context(), kind, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*models.AnalysisRecord{}
	}
	render.JSON(w, r, map[string]interface{}{
		"analyses": records,
		"count":    len(records),
	})
}

func (h *Handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errors.InvalidInput("analysis ID is required"))
		return
	}
	record, err := h.service.GetAnalysis(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, record)
}

// decode parses and validates a JSON request body. On failure the error
// response has already been written and the handler should return.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		h.writeError(w, r, errors.InvalidInput("request body is not valid JSON"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, errors.ValidationError(formatValidationErrors(err)))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: errorBody{
		Code:    code,
		Message: err.Error(),
	}})
}

func statusForCode(code string) int {
	switch code {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeIngestError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func formatValidationErrors(err error) string {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return strings.Join(messages, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
