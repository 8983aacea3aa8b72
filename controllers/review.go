package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"residency-application-api/models"
	"residency-application-api/services"
)

// ApplyEdit commits a staff edit to the personal statement and/or experiences
func ApplyEdit(c *gin.Context) {
	applicationID := c.Param("id")
	userID, _ := callerIdentity(c)

	type ApplyEditRequest struct {
		PersonalStatement *string                    `json:"personal_statement"`
		Experiences       []services.ExperienceInput `json:"experiences"`
		EditSummary       string                     `json:"edit_summary" binding:"required"`
		RowVersion        int                        `json:"row_version" binding:"required"`
	}

	var req ApplyEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	application, err := editService.ApplyEdit(c.Request.Context(), applicationID, userID, services.EditInput{
		PersonalStatement: req.PersonalStatement,
		Experiences:       req.Experiences,
		EditSummary:       req.EditSummary,
		ExpectedVersion:   req.RowVersion,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Edit applied successfully",
		"application": application,
	})
}

// GetEditRecords returns the staff edit audit trail
func GetEditRecords(c *gin.Context) {
	applicationID := c.Param("id")
	userID, role := callerIdentity(c)

	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}
	if _, err := lifecycleService.GetApplication(c.Request.Context(), applicationID, ownerScope); err != nil {
		respondServiceError(c, err)
		return
	}

	records, err := editService.EditRecords(c.Request.Context(), applicationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"edit_records": records,
		"total":        len(records),
	})
}

// CreateEditRequest records an owner's revision request
func CreateEditRequest(c *gin.Context) {
	applicationID := c.Param("id")
	userID, _ := callerIdentity(c)

	type EditRequestRequest struct {
		Message string `json:"message" binding:"required"`
	}

	var req EditRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := editService.RequestEdit(c.Request.Context(), applicationID, userID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Edit request recorded",
		"edit_request": request,
	})
}

// GetEditRequests lists the application's edit requests
func GetEditRequests(c *gin.Context) {
	applicationID := c.Param("id")
	userID, role := callerIdentity(c)

	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}
	if _, err := lifecycleService.GetApplication(c.Request.Context(), applicationID, ownerScope); err != nil {
		respondServiceError(c, err)
		return
	}

	requests, err := editService.EditRequests(c.Request.Context(), applicationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"edit_requests": requests,
		"total":         len(requests),
	})
}

// ResolveEditRequest marks an edit request as resolved (staff only)
func ResolveEditRequest(c *gin.Context) {
	editRequestID := c.Param("id")
	userID, _ := callerIdentity(c)

	request, err := editService.ResolveEditRequest(c.Request.Context(), editRequestID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Edit request resolved",
		"edit_request": request,
	})
}
