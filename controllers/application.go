package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"residency-application-api/models"
	"residency-application-api/services"
)

// GetApplications returns list of applications
func GetApplications(c *gin.Context) {
	userID, role := callerIdentity(c)

	// Staff see every application; applicants only their own.
	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}

	applications, err := lifecycleService.ListApplications(c.Request.Context(), ownerScope, models.ApplicationStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": applications,
		"total":        len(applications),
	})
}

// GetApplication returns single application by ID
func GetApplication(c *gin.Context) {
	id := c.Param("id")
	userID, role := callerIdentity(c)

	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}

	application, err := lifecycleService.GetApplication(c.Request.Context(), id, ownerScope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": application})
}

// CreateApplication creates a new draft application
func CreateApplication(c *gin.Context) {
	type CreateApplicationRequest struct {
		PackageType models.PackageType `json:"package_type" binding:"required"`
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := callerIdentity(c)

	application, err := lifecycleService.CreateDraft(c.Request.Context(), userID, req.PackageType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Draft created successfully",
		"application": application,
	})
}

// UpdateApplication updates a draft application (owner only)
func UpdateApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := callerIdentity(c)

	type UpdateApplicationRequest struct {
		PersonalStatement *string                    `json:"personal_statement"`
		Experiences       []services.ExperienceInput `json:"experiences"`
		RowVersion        int                        `json:"row_version" binding:"required"`
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	application, err := lifecycleService.UpdateDraft(c.Request.Context(), id, userID, services.UpdateDraftInput{
		PersonalStatement: req.PersonalStatement,
		Experiences:       req.Experiences,
		ExpectedVersion:   req.RowVersion,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Draft updated successfully",
		"application": application,
	})
}

// SubmitApplication moves a draft to submitted
func SubmitApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := callerIdentity(c)

	application, err := lifecycleService.Submit(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Application submitted successfully",
		"application": application,
	})
}

// TransitionApplicationStatus executes a staff-initiated status transition
func TransitionApplicationStatus(c *gin.Context) {
	id := c.Param("id")
	userID, _ := callerIdentity(c)

	type TransitionRequest struct {
		Status          models.ApplicationStatus `json:"status" binding:"required"`
		Reason          *string                  `json:"reason"`
		NoChangesNeeded bool                     `json:"no_changes_needed"`
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	application, err := lifecycleService.TransitionStatus(c.Request.Context(), id, userID, services.TransitionInput{
		Target:          req.Status,
		Reason:          req.Reason,
		NoChangesNeeded: req.NoChangesNeeded,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Status updated successfully",
		"application": application,
	})
}

// DeleteApplication soft deletes an application (draft or completed only)
func DeleteApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := callerIdentity(c)

	if err := lifecycleService.Delete(c.Request.Context(), id, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application deleted successfully"})
}

// GetStatusHistory returns the status transition audit trail
func GetStatusHistory(c *gin.Context) {
	id := c.Param("id")
	userID, role := callerIdentity(c)

	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}

	// Ownership check before exposing the trail.
	if _, err := lifecycleService.GetApplication(c.Request.Context(), id, ownerScope); err != nil {
		respondServiceError(c, err)
		return
	}

	history, err := lifecycleService.StatusHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"total":   len(history),
	})
}
