package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"accmeta/src/core/digest"
	jobctrl "accmeta/src/infrastructure/job"
	"accmeta/src/storage/minioctrl"
	"accmeta/src/storage/postgres/resultctrl"
)

// ImportHandler serves the upload path and the browsing/polling reads. The
// upload path only stores the file and creates a pending job; all processing
// happens in the worker.
type ImportHandler struct {
	minioService  *minioctrl.MinioService
	bucketName    string
	jobService    *jobctrl.PostgresJobRepository
	resultService *resultctrl.ResultService
}

func NewImportHandler(
	minioService *minioctrl.MinioService,
	bucketName string,
	jobService *jobctrl.PostgresJobRepository,
	resultService *resultctrl.ResultService,
) (*ImportHandler, error) {
	// Ensure bucket exists
	err := minioService.EnsureBucketExists(context.Background(), bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	return &ImportHandler{
		minioService:  minioService,
		bucketName:    bucketName,
		jobService:    jobService,
		resultService: resultService,
	}, nil
}

// validAccessFilename accepts only a plain Access database file name: no
// path segments (the name feeds storage object paths and the worker's
// job-scoped temp path) and a recognized extension.
func validAccessFilename(name string) bool {
	if name == "" || name != filepath.Base(name) {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".accdb" || ext == ".mdb"
}

func (h *ImportHandler) Upload(c *gin.Context) {
	projectID := c.Param("projectID")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if !validAccessFilename(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only plain Access database filenames (.accdb, .mdb) are allowed"})
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	objectName := fmt.Sprintf("%s/%s", projectID, header.Filename)
	err = h.minioService.PutObject(
		c.Request.Context(),
		h.bucketName,
		objectName,
		fileBytes,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	job, err := h.jobService.Create(
		c.Request.Context(),
		projectID,
		header.Filename,
		objectName,
		h.bucketName,
		digest.Bytes(fileBytes),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create import job"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       job.ID,
		"filename": job.AccessFilename,
		"status":   job.Status,
	})
}

// GetJob is what the UI polls after an upload until the job turns terminal.
func (h *ImportHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get import job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *ImportHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobService.ListByProject(c.Request.Context(), c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list import jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *ImportHandler) ListQueries(c *gin.Context) {
	queries, err := h.resultService.ListQueriesByJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list queries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queries": queries})
}

func (h *ImportHandler) ListModules(c *gin.Context) {
	modules, err := h.resultService.ListModulesByJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list modules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"modules": modules})
}
