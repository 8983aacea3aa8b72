package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"residency-application-api/models"
)

// GetDashboardStats returns application counts per status for the caller
func GetDashboardStats(c *gin.Context) {
	userID, role := callerIdentity(c)

	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}

	counts, err := lifecycleService.CountByStatus(c.Request.Context(), ownerScope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"by_status": counts,
		"total":     total,
	})
}
