package api

import (
	"net/http"

	"windaep/app"
	"windaep/domain/aep"
	"windaep/internal"
	"windaep/internal/errors"
	"windaep/ports"

	"github.com/gin-gonic/gin"
)

// Handler serves AEP evaluation over HTTP
type Handler struct {
	service *app.AEPService
	solver  ports.ExternalSolver
	logger  *internal.Logger
}

// NewHandler creates a handler. solver backs /v1/integrate and may be nil.
func NewHandler(service *app.AEPService, solver ports.ExternalSolver, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{service: service, solver: solver, logger: logger.With("api")}
}

// SamplesBody is the JSON form of aep.Samples shared by the AEP endpoints
type SamplesBody struct {
	Power      []float64 `json:"power"`
	Weights    []float64 `json:"weights"`
	Frequency  []float64 `json:"frequency"`
	Directions []float64 `json:"directions,omitempty"`
	Speeds     []float64 `json:"speeds,omitempty"`
}

func (b SamplesBody) samples() aep.Samples {
	return aep.Samples{
		Power:      b.Power,
		Weights:    b.Weights,
		Frequency:  b.Frequency,
		Directions: b.Directions,
		Speeds:     b.Speeds,
	}
}

// EvaluateBody is the request body for POST /v1/aep/evaluate
type EvaluateBody struct {
	SamplesBody
	Method       string `json:"method"`
	WithGradient bool   `json:"with_gradient"`
}

// CheckBody is the request body for POST /v1/aep/check
type CheckBody struct {
	SamplesBody
	FDOptions *aep.FDOptions `json:"fd_options,omitempty"`
}

// Register mounts the routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	v1.POST("/aep/evaluate", h.Evaluate)
	v1.POST("/aep/gradient", h.Gradient)
	v1.POST("/aep/check", h.Check)
	v1.POST("/integrate", h.Integrate)
}

// Health reports liveness and which solver is configured
func (h *Handler) Health(c *gin.Context) {
	solver := ""
	if h.solver != nil {
		solver = h.solver.Name()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"default_method": h.service.DefaultMethod(),
		"solver":         solver,
	})
}

// Evaluate handles POST /v1/aep/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	var body EvaluateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abort(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	method, err := app.ParseMethod(body.Method)
	if err != nil {
		h.abort(c, err)
		return
	}

	eval, err := h.service.Evaluate(c.Request.Context(), app.EvaluationRequest{
		Samples:      body.samples(),
		Method:       method,
		WithGradient: body.WithGradient,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

// Gradient handles POST /v1/aep/gradient
func (h *Handler) Gradient(c *gin.Context) {
	var body SamplesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abort(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	g, err := h.service.Gradient(c.Request.Context(), body.samples())
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Check handles POST /v1/aep/check
func (h *Handler) Check(c *gin.Context) {
	var body CheckBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abort(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	var opts aep.FDOptions
	if body.FDOptions != nil {
		opts = *body.FDOptions
	}
	check, err := h.service.CheckGradient(c.Request.Context(), body.samples(), opts)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// Integrate handles POST /v1/integrate, the endpoint remote solvers call
func (h *Handler) Integrate(c *gin.Context) {
	if h.solver == nil {
		h.abort(c, errors.ConfigInvalid("no integration solver configured"))
		return
	}

	var req ports.IntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	if len(req.Values) == 0 {
		h.abort(c, errors.InvalidInput("values must not be empty"))
		return
	}

	resp, err := h.solver.Solve(c.Request.Context(), req)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) abort(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}

// StatusFor maps an application error code to an HTTP status
func StatusFor(code string) int {
	switch code {
	case errors.CodeShapeMismatch, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeExternalTool:
		return http.StatusBadGateway
	case errors.CodeConfigInvalid:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
