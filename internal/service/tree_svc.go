package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/paperbase/paperbase/internal/apperr"
	"github.com/paperbase/paperbase/internal/blob"
	"github.com/paperbase/paperbase/internal/model"
)

// maxTreeDepth bounds every ancestor walk and subtree traversal. Cycles are
// structurally disallowed, but a corrupted parent chain must not hang a
// request.
const maxTreeDepth = 64

// cleanupTimeout bounds the detached blob cleanup after a delete.
const cleanupTimeout = 2 * time.Minute

// TreeService owns the folder/file hierarchy: creation, moves, recursive
// deletes, and listings.
type TreeService struct {
	items  ItemStore
	units  UnitStore
	blobs  blob.Store
	logger *slog.Logger
}

func NewTreeService(items ItemStore, units UnitStore, blobs blob.Store) *TreeService {
	return &TreeService{
		items:  items,
		units:  units,
		blobs:  blobs,
		logger: slog.Default().With("component", "tree"),
	}
}

// CreateFolder creates a folder under parentID (nil for root) and puts the
// matching zero-byte marker in the blob store.
func (s *TreeService) CreateFolder(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*model.Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.InvalidArgumentf("folder name is required")
	}

	parent, err := s.resolveParentFolder(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	key, err := s.deriveStorageKey(ctx, ownerID, parent, name, true)
	if err != nil {
		return nil, err
	}

	res, err := s.blobs.CreateMarker(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder marker: %w", err)
	}

	folder := &model.Item{
		OwnerID:         ownerID,
		Kind:            model.ItemKindFolder,
		Name:            strings.TrimSpace(name),
		ParentID:        parentID,
		StorageProvider: "gcs",
		StorageKey:      res.Key,
		StorageURI:      res.URI,
	}
	if err := s.items.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// CreateFileNode uploads the raw bytes and persists the file row. Units are
// the ingest service's concern.
func (s *TreeService) CreateFileNode(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID, name, mediaType string, data []byte) (*model.Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.InvalidArgumentf("file name is required")
	}

	parent, err := s.resolveParentFolder(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	key, err := s.deriveStorageKey(ctx, ownerID, parent, name, false)
	if err != nil {
		return nil, err
	}

	res, err := s.blobs.Put(ctx, key, data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	file := &model.Item{
		OwnerID:         ownerID,
		Kind:            model.ItemKindFile,
		Name:            strings.TrimSpace(name),
		ParentID:        parentID,
		MediaType:       mediaType,
		SizeBytes:       int64(len(data)),
		StorageProvider: "gcs",
		StorageKey:      res.Key,
		StorageURI:      res.URI,
	}
	if err := s.items.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// Move reparents a node. Only parent_id changes; storage keys are immutable
// once assigned, so the blob layout intentionally stops mirroring the
// display tree after a move.
func (s *TreeService) Move(ctx context.Context, ownerID, nodeID uuid.UUID, newParentID *uuid.UUID) (*model.Item, error) {
	node, err := s.items.FindByID(ctx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apperr.NotFoundf("node %s", nodeID)
	}

	if newParentID != nil {
		if *newParentID == nodeID {
			return nil, apperr.InvalidArgumentf("cannot move a node into itself")
		}

		target, err := s.items.FindByID(ctx, ownerID, *newParentID)
		if err != nil {
			return nil, err
		}
		if target == nil || !target.IsFolder() {
			return nil, apperr.NotFoundf("target folder %s", *newParentID)
		}

		if err := s.checkNoCycle(ctx, ownerID, nodeID, target); err != nil {
			return nil, err
		}
	}

	if err := s.items.UpdateParent(ctx, nodeID, newParentID); err != nil {
		return nil, err
	}
	node.ParentID = newParentID
	return node, nil
}

// checkNoCycle walks parent pointers from target up to the root and fails
// if it passes through nodeID. O(depth) per move.
func (s *TreeService) checkNoCycle(ctx context.Context, ownerID, nodeID uuid.UUID, target *model.Item) error {
	visited := map[uuid.UUID]bool{}
	current := target

	for depth := 0; current != nil; depth++ {
		if current.ID == nodeID {
			return apperr.ErrCycleDetected
		}
		if depth >= maxTreeDepth || visited[current.ID] {
			return apperr.InvalidArgumentf("parent chain of %s exceeds depth limit", target.ID)
		}
		visited[current.ID] = true

		if current.ParentID == nil {
			return nil
		}
		next, err := s.items.FindByID(ctx, ownerID, *current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

// Delete soft-deletes the node and its whole subtree, then fires blob
// cleanup without awaiting it. Cleanup failures are logged only; the
// metadata is already consistent and leaked bytes are reconciled out of
// band.
func (s *TreeService) Delete(ctx context.Context, ownerID, nodeID uuid.UUID) error {
	node, err := s.items.FindByID(ctx, ownerID, nodeID)
	if err != nil {
		return err
	}
	if node == nil {
		return apperr.NotFoundf("node %s", nodeID)
	}

	nodeIDs, fileIDs, err := s.collectSubtree(ctx, ownerID, node)
	if err != nil {
		return err
	}

	if err := s.units.DeleteBySourceFiles(ctx, fileIDs); err != nil {
		return err
	}
	if err := s.items.DeleteByIDs(ctx, nodeIDs); err != nil {
		return err
	}

	go s.cleanupBlobs(node)

	return nil
}

// collectSubtree gathers the ids of node and every descendant, depth-first
// with an explicit stack, plus the subset that are files.
func (s *TreeService) collectSubtree(ctx context.Context, ownerID uuid.UUID, node *model.Item) (nodeIDs, fileIDs []uuid.UUID, err error) {
	visited := map[uuid.UUID]bool{}
	stack := []*model.Item{node}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true
		if len(visited) > maxTreeDepth*maxTreeDepth {
			return nil, nil, apperr.InvalidArgumentf("subtree of %s exceeds traversal limit", node.ID)
		}

		nodeIDs = append(nodeIDs, current.ID)
		if current.Kind == model.ItemKindFile {
			fileIDs = append(fileIDs, current.ID)
		}

		if current.IsFolder() {
			children, err := s.items.FindChildren(ctx, ownerID, &current.ID)
			if err != nil {
				return nil, nil, err
			}
			for i := range children {
				stack = append(stack, &children[i])
			}
		}
	}

	return nodeIDs, fileIDs, nil
}

func (s *TreeService) cleanupBlobs(node *model.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	var err error
	if node.IsFolder() {
		err = s.blobs.DeleteByPrefix(ctx, node.StorageKey)
	} else {
		err = s.blobs.Delete(ctx, node.StorageKey)
	}
	if err != nil {
		s.logger.Warn("blob cleanup incomplete after delete",
			"node_id", node.ID, "storage_key", node.StorageKey, "error", err)
	}
}

// Get returns one live node of the owner.
func (s *TreeService) Get(ctx context.Context, ownerID, nodeID uuid.UUID) (*model.Item, error) {
	node, err := s.items.FindByID(ctx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apperr.NotFoundf("node %s", nodeID)
	}
	return node, nil
}

// ListChildren returns direct children sorted by (kind, name), annotating
// folder children with their immediate child counts.
func (s *TreeService) ListChildren(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]model.Item, error) {
	if parentID != nil {
		parent, err := s.items.FindByID(ctx, ownerID, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || !parent.IsFolder() {
			return nil, apperr.NotFoundf("folder %s", *parentID)
		}
	}

	children, err := s.items.FindChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	// One count query per folder child; folder fan-out stays small.
	for i := range children {
		if children[i].IsFolder() {
			count, err := s.items.CountChildren(ctx, ownerID, children[i].ID)
			if err != nil {
				return nil, err
			}
			children[i].ChildCount = count
		}
	}
	return children, nil
}

// Tree materializes the subtree under rootID, or the owner's whole forest
// when rootID is nil, in ListChildren order.
func (s *TreeService) Tree(ctx context.Context, ownerID uuid.UUID, rootID *uuid.UUID) ([]*model.Item, error) {
	var roots []model.Item
	if rootID == nil {
		items, err := s.items.FindChildren(ctx, ownerID, nil)
		if err != nil {
			return nil, err
		}
		roots = items
	} else {
		root, err := s.items.FindByID(ctx, ownerID, *rootID)
		if err != nil {
			return nil, err
		}
		if root == nil {
			return nil, apperr.NotFoundf("node %s", *rootID)
		}
		roots = []model.Item{*root}
	}

	visited := map[uuid.UUID]bool{}
	out := make([]*model.Item, 0, len(roots))
	for i := range roots {
		node, err := s.materialize(ctx, ownerID, &roots[i], visited, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func (s *TreeService) materialize(ctx context.Context, ownerID uuid.UUID, node *model.Item, visited map[uuid.UUID]bool, depth int) (*model.Item, error) {
	if depth > maxTreeDepth || visited[node.ID] {
		return nil, apperr.InvalidArgumentf("tree under %s exceeds depth limit", node.ID)
	}
	visited[node.ID] = true

	if !node.IsFolder() {
		return node, nil
	}

	children, err := s.items.FindChildren(ctx, ownerID, &node.ID)
	if err != nil {
		return nil, err
	}

	node.Children = make([]*model.Item, 0, len(children))
	for i := range children {
		child, err := s.materialize(ctx, ownerID, &children[i], visited, depth+1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

/* ---------------- storage keys ---------------- */

// resolveParentFolder validates that parentID (when set) is a live folder
// of the same owner.
func (s *TreeService) resolveParentFolder(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) (*model.Item, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.items.FindByID(ctx, ownerID, *parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil || !parent.IsFolder() {
		return nil, apperr.NotFoundf("parent folder %s", *parentID)
	}
	return parent, nil
}

// deriveStorageKey builds the blob key from the slugged ancestor path plus
// the node's own name. The display name keeps its original characters; only
// the key is forced ASCII-safe. Sibling-level collisions get the smallest
// unused " (n)" suffix.
func (s *TreeService) deriveStorageKey(ctx context.Context, ownerID uuid.UUID, parent *model.Item, name string, isFolder bool) (string, error) {
	prefix := ""
	if parent != nil {
		prefix = strings.TrimSuffix(parent.StorageKey, "/") + "/"
	}

	base := slugify(name)
	ext := ""
	if !isFolder {
		ext = strings.ToLower(path.Ext(base))
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		base = "untitled"
	}

	for n := 0; ; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)", base, n)
		}

		key := prefix + candidate + ext
		if isFolder {
			key += "/"
		}

		exists, err := s.items.StorageKeyExists(ctx, ownerID, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
}

// slugify lowercases, collapses whitespace to dashes, and drops everything
// outside a conservative ASCII set.
func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
			lastDash = false
		}
	}
	return strings.Trim(b.String(), "-")
}
