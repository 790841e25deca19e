package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the dashboard routes. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger))

	r.GET("/", h.dashboardPage)
	r.GET("/schedules", h.schedulesPage)
	r.GET("/health", h.health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/state", h.state)
		api.GET("/fragments/:id", h.fragment)
		api.GET("/chart/status.svg", h.chartSVG)
		api.GET("/map", h.mapState)
		api.POST("/refresh", h.refresh)
		api.GET("/search", h.search)
		api.POST("/sort/delay", h.sortByDelay)
		api.POST("/flights/:id/select", h.selectFlight)
		api.GET("/refresh-runs", h.refreshRuns)
	}

	return r
}
