package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paperbase/paperbase/internal/service"
)

type FileHandler struct {
	ingest *service.IngestService
	embed  *service.EmbedService
	tree   *service.TreeService

	maxUploadBytes int64
}

func NewFileHandler(ingest *service.IngestService, embed *service.EmbedService, tree *service.TreeService, maxUploadBytes int64) *FileHandler {
	return &FileHandler{
		ingest:         ingest,
		embed:          embed,
		tree:           tree,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload ingests a multipart document: store, transform, chunk, embed.
func (h *FileHandler) Upload(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	parentID, err := optionalID(c.PostForm("parent_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
		return
	}

	var reader io.Reader = file
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
		return
	}

	uploaded, err := h.ingest.Ingest(
		c.Request.Context(),
		owner,
		parentID,
		header.Filename,
		header.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, uploaded)
}

func (h *FileHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	files, total, err := h.ingest.ListFiles(c.Request.Context(), owner, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": files,
		"pagination": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *FileHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return
	}

	node, err := h.tree.Get(c.Request.Context(), owner, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// ListUnits returns the chunks of one file in sequence order, embedding
// status included.
func (h *FileHandler) ListUnits(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return
	}

	units, err := h.ingest.ListUnits(c.Request.Context(), owner, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": units})
}

// Reembed retries every FAILED unit of the file.
func (h *FileHandler) Reembed(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return
	}

	retried, recovered, err := h.embed.ReembedFile(c.Request.Context(), owner, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"retried":   retried,
		"recovered": recovered,
	})
}
