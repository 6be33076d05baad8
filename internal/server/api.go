package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// leadRequest is the body of POST /research on the API variant.
type leadRequest struct {
	Name *string `json:"name" binding:"required"`
}

// batchRequest is the body of POST /research/batch.
type batchRequest struct {
	Names []string `json:"names" binding:"required"`
}

// NewAPI returns the gin variant:
//
//	POST /research        {"name": "..."}   -> lead or error record
//	POST /research/batch  {"names": [...]}  -> {"leads": [...]}
//	GET  /health                            -> {"status": "ok"}
func NewAPI(r Researcher, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.Error("panic",
			zap.String("request_id", RequestIDFrom(c.Request.Context())),
			zap.String("path", c.Request.URL.Path),
			zap.Any("err", rec))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}))

	a := &api{research: r, log: log}
	engine.POST("/research", a.handleResearch)
	engine.POST("/research/batch", a.handleBatch)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, health)
	})

	return standard(engine, log)
}

type api struct {
	research Researcher
	log      *zap.Logger
}

func (a *api) handleResearch(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: missingSubjectMessage})
		return
	}
	c.JSON(http.StatusOK, a.research.Research(c.Request.Context(), *req.Name))
}

func (a *api) handleBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: missingSubjectMessage})
		return
	}
	a.log.Info("batch research", zap.Int("count", len(req.Names)), zap.String("request_id", RequestIDFrom(c.Request.Context())))
	c.JSON(http.StatusOK, batch(a.research.ResearchBatch(c.Request.Context(), req.Names)))
}
