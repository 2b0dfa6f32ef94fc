package devservice

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
)

// Handlers serves a Dataset over the data service HTTP contract.
type Handlers struct {
	ds     *Dataset
	logger *zap.Logger
}

// NewHandlers wraps ds.
func NewHandlers(ds *Dataset, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{ds: ds, logger: logger}
}

// RegisterRoutes mounts the metadata and query endpoints on rg.
//
//	api := router.Group("/api")
//	devservice.RegisterRoutes(api, devservice.NewHandlers(ds, logger))
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	meta := rg.Group("/meta")
	{
		meta.GET("/states", h.HandleStates)
		meta.GET("/districts", h.HandleDistricts)
		meta.GET("/blocks", h.HandleBlocks)
	}
	rg.POST("/query", h.HandleQuery)
}

// NewRouter builds a gin engine with the API mounted under /api.
func NewRouter(ds *Dataset, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("jalsathi-devserver"))
	RegisterRoutes(router.Group("/api"), NewHandlers(ds, logger))
	return router
}

// #region handlers
func (h *Handlers) HandleStates(c *gin.Context) {
	states, err := h.ds.States(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, states)
}

func (h *Handlers) HandleDistricts(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state is required"})
		return
	}
	districts, err := h.ds.Districts(c.Request.Context(), state)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, districts)
}

func (h *Handlers) HandleBlocks(c *gin.Context) {
	state, district := c.Query("state"), c.Query("district")
	if state == "" || district == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state and district are required"})
		return
	}
	blocks, err := h.ds.Blocks(c.Request.Context(), state, district)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

func (h *Handlers) HandleQuery(c *gin.Context) {
	var req dataservice.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query body"})
		return
	}
	resp, err := h.ds.Query(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("query served",
		zap.String("state", resp.LocationSummary.State),
		zap.String("district", resp.LocationSummary.District),
		zap.Int("years", len(resp.Years)))
	c.JSON(http.StatusOK, resp)
}

// #endregion handlers

func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if dataservice.KindOf(err) == dataservice.KindNotFound {
		status = http.StatusNotFound
	}
	h.logger.Warn("request failed", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
	msg := err.Error()
	var dsErr *dataservice.Error
	if errors.As(err, &dsErr) && dsErr.Message != "" {
		msg = dsErr.Message
	}
	c.JSON(status, gin.H{"message": msg})
}
