package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"residency-application-api/models"
)

// UploadDocument stores a new version for a document slot
func UploadDocument(c *gin.Context) {
	applicationID := c.Param("id")
	userID, role := callerIdentity(c)

	// Applicants may only upload to their own applications.
	if role != models.RoleStaff {
		if _, err := lifecycleService.GetApplication(c.Request.Context(), applicationID, userID); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	slot := models.DocumentSlot(c.PostForm("file_type"))
	if !models.IsValidDocumentSlot(slot) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_type must be personal_statement, cv or other"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	if fileHeader.Size > models.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "File exceeds the 10 MiB limit",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot read uploaded file"})
		return
	}

	document, err := documentService.Upload(c.Request.Context(), applicationID, slot, fileHeader.Filename, data, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Document uploaded successfully",
		"document": document,
	})
}

// GetDocuments lists documents for an application; latest per slot by
// default, full history with ?history=true
func GetDocuments(c *gin.Context) {
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

	includeHistory, _ := strconv.ParseBool(c.Query("history"))

	documents, err := documentService.List(c.Request.Context(), applicationID, includeHistory)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"total":     len(documents),
	})
}

// GetDocumentHistory returns every version for one slot, ascending
func GetDocumentHistory(c *gin.Context) {
	applicationID := c.Param("id")
	slot := models.DocumentSlot(c.Param("file_type"))
	userID, role := callerIdentity(c)

	if !models.IsValidDocumentSlot(slot) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_type must be personal_statement, cv or other"})
		return
	}

	ownerScope := userID
	if role == models.RoleStaff {
		ownerScope = ""
	}
	if _, err := lifecycleService.GetApplication(c.Request.Context(), applicationID, ownerScope); err != nil {
		respondServiceError(c, err)
		return
	}

	documents, err := documentService.History(c.Request.Context(), applicationID, slot)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"total":     len(documents),
	})
}

// DownloadDocument streams a stored document version
func DownloadDocument(c *gin.Context) {
	documentID := c.Param("document_id")
	userID, role := callerIdentity(c)

	document, err := documentService.Find(c.Request.Context(), documentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Applicants may only fetch documents on their own applications. The
	// check runs before the blob read so a forged id costs no disk access.
	if role != models.RoleStaff {
		if _, err := lifecycleService.GetApplication(c.Request.Context(), document.ApplicationID, userID); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	data, err := documentService.Download(c.Request.Context(), document)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+document.OriginalFilename+"\"")
	c.Data(http.StatusOK, document.MimeType, data)
}
