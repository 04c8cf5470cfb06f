package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperbase/paperbase/internal/service"
)

type FolderHandler struct {
	tree *service.TreeService
}

func NewFolderHandler(tree *service.TreeService) *FolderHandler {
	return &FolderHandler{tree: tree}
}

type createFolderRequest struct {
	Name     string     `json:"name" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (h *FolderHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	folder, err := h.tree.CreateFolder(c.Request.Context(), owner, req.Name, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

// ListChildren returns the direct children of a folder, or of the root when
// parent_id is absent.
func (h *FolderHandler) ListChildren(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	parentID, err := optionalID(c.Query("parent_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
		return
	}

	children, err := h.tree.ListChildren(c.Request.Context(), owner, parentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": children})
}

// Tree returns the materialized subtree under root_id, or the owner's
// whole forest when root_id is absent.
func (h *FolderHandler) Tree(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	rootID, err := optionalID(c.Query("root_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid root_id"})
		return
	}

	nodes, err := h.tree.Tree(c.Request.Context(), owner, rootID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nodes})
}

type moveRequest struct {
	NewParentID *uuid.UUID `json:"new_parent_id"`
}

func (h *FolderHandler) Move(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	nodeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	node, err := h.tree.Move(c.Request.Context(), owner, nodeID, req.NewParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *FolderHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	nodeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tree.Delete(c.Request.Context(), owner, nodeID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": nodeID})
}
