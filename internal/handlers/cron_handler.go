package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"superteam-earn/internal/jobs"
)

// CronHandler lets an external scheduler trigger maintenance jobs
type CronHandler struct {
	scheduler *jobs.Scheduler
}

func NewCronHandler(scheduler *jobs.Scheduler) *CronHandler {
	return &CronHandler{scheduler: scheduler}
}

// Run executes one job synchronously
// POST /api/cron/:job
func (h *CronHandler) Run(c *gin.Context) {
	job := c.Param("job")
	affected, err := h.scheduler.Run(c.Request.Context(), job)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job, "affected": affected})
}
