package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	stats StatsProvider
}

func NewStatsController(stats StatsProvider) *StatsController {
	return &StatsController{stats: stats}
}

// GET /stats/collection
func (sc *StatsController) Collection(c *gin.Context) {
	s, err := sc.stats.Collection(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
