package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/internal/apperr"
	"github.com/paperbase/paperbase/internal/model"
)

func newTreeFixture() (*TreeService, *memItemStore, *memUnitStore, *memBlobStore) {
	items := newMemItemStore()
	units := newMemUnitStore()
	blobs := newMemBlobStore()
	return NewTreeService(items, units, blobs), items, units, blobs
}

func TestCreateFolder(t *testing.T) {
	svc, _, _, blobs := newTreeFixture()
	owner := uuid.New()

	folder, err := svc.CreateFolder(context.Background(), owner, "My Reports", nil)
	require.NoError(t, err)

	assert.Equal(t, model.ItemKindFolder, folder.Kind)
	assert.Equal(t, "My Reports", folder.Name)
	assert.Nil(t, folder.ParentID)
	assert.Equal(t, "my-reports/", folder.StorageKey)

	// The zero-byte marker must exist under the derived key.
	blobs.mu.Lock()
	_, ok := blobs.objects["my-reports/"]
	blobs.mu.Unlock()
	assert.True(t, ok)
}

func TestCreateFolder_RequiresName(t *testing.T) {
	svc, _, _, _ := newTreeFixture()

	_, err := svc.CreateFolder(context.Background(), uuid.New(), "   ", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCreateFolder_MissingParent(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	missing := uuid.New()

	_, err := svc.CreateFolder(context.Background(), uuid.New(), "sub", &missing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateFileNode_KeyCollision(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	first, err := svc.CreateFileNode(ctx, owner, nil, "Report.PDF", "application/pdf", []byte("a"))
	require.NoError(t, err)
	second, err := svc.CreateFileNode(ctx, owner, nil, "Report.PDF", "application/pdf", []byte("b"))
	require.NoError(t, err)
	third, err := svc.CreateFileNode(ctx, owner, nil, "Report.PDF", "application/pdf", []byte("c"))
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", first.StorageKey)
	assert.Equal(t, "report (1).pdf", second.StorageKey)
	assert.Equal(t, "report (2).pdf", third.StorageKey)

	// Display names stay as uploaded.
	assert.Equal(t, "Report.PDF", second.Name)
}

func TestCreateFileNode_KeyIncludesAncestorPath(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	parent, err := svc.CreateFolder(ctx, owner, "Q3 Finanças!", nil)
	require.NoError(t, err)

	file, err := svc.CreateFileNode(ctx, owner, &parent.ID, "notes.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, "q3-finanas/notes.txt", file.StorageKey)
}

func TestMove_IntoSelf(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, owner, "a", nil)
	require.NoError(t, err)

	_, err = svc.Move(ctx, owner, folder.ID, &folder.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestMove_IntoOwnDescendant(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	a, err := svc.CreateFolder(ctx, owner, "a", nil)
	require.NoError(t, err)
	b, err := svc.CreateFolder(ctx, owner, "b", &a.ID)
	require.NoError(t, err)
	c, err := svc.CreateFolder(ctx, owner, "c", &b.ID)
	require.NoError(t, err)

	_, err = svc.Move(ctx, owner, a.ID, &c.ID)
	assert.ErrorIs(t, err, apperr.ErrCycleDetected)
}

func TestMove_TargetMustBeFolder(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	file, err := svc.CreateFileNode(ctx, owner, nil, "f.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	folder, err := svc.CreateFolder(ctx, owner, "a", nil)
	require.NoError(t, err)

	_, err = svc.Move(ctx, owner, folder.ID, &file.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMove_ToRoot(t *testing.T) {
	svc, items, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	a, err := svc.CreateFolder(ctx, owner, "a", nil)
	require.NoError(t, err)
	b, err := svc.CreateFolder(ctx, owner, "b", &a.ID)
	require.NoError(t, err)

	moved, err := svc.Move(ctx, owner, b.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	stored, err := items.FindByID(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)

	// The key keeps its original ancestor path: moves never rewrite blobs.
	assert.Equal(t, "a/b/", stored.StorageKey)
}

func TestDelete_RemovesSubtreeAndUnits(t *testing.T) {
	svc, items, units, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	root, err := svc.CreateFolder(ctx, owner, "root", nil)
	require.NoError(t, err)
	sub, err := svc.CreateFolder(ctx, owner, "sub", &root.ID)
	require.NoError(t, err)
	file, err := svc.CreateFileNode(ctx, owner, &sub.ID, "f.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	outside, err := svc.CreateFileNode(ctx, owner, nil, "keep.txt", "text/plain", []byte("y"))
	require.NoError(t, err)

	require.NoError(t, units.CreateBatch(ctx, []model.Unit{
		{OwnerID: owner, SourceFileID: file.ID, Content: "a"},
		{OwnerID: owner, SourceFileID: file.ID, Content: "b"},
		{OwnerID: owner, SourceFileID: outside.ID, Content: "c"},
	}))

	require.NoError(t, svc.Delete(ctx, owner, root.ID))

	for _, id := range []uuid.UUID{root.ID, sub.ID, file.ID} {
		got, err := items.FindByID(ctx, owner, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	gone, err := units.FindBySourceFile(ctx, owner, file.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := units.FindBySourceFile(ctx, owner, outside.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestDelete_MissingNode(t *testing.T) {
	svc, _, _, _ := newTreeFixture()

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListChildren_CountsFolderChildren(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	parent, err := svc.CreateFolder(ctx, owner, "parent", nil)
	require.NoError(t, err)
	sub, err := svc.CreateFolder(ctx, owner, "sub", &parent.ID)
	require.NoError(t, err)
	_, err = svc.CreateFileNode(ctx, owner, &sub.ID, "f.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	_, err = svc.CreateFileNode(ctx, owner, &sub.ID, "g.txt", "text/plain", []byte("y"))
	require.NoError(t, err)

	children, err := svc.ListChildren(ctx, owner, &parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, sub.ID, children[0].ID)
	assert.Equal(t, int64(2), children[0].ChildCount)
}

func TestTree_MaterializesNestedChildren(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	owner := uuid.New()
	ctx := context.Background()

	root, err := svc.CreateFolder(ctx, owner, "root", nil)
	require.NoError(t, err)
	sub, err := svc.CreateFolder(ctx, owner, "sub", &root.ID)
	require.NoError(t, err)
	file, err := svc.CreateFileNode(ctx, owner, &sub.ID, "f.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	nodes, err := svc.Tree(ctx, owner, &root.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Children, 1)
	require.Len(t, nodes[0].Children[0].Children, 1)
	assert.Equal(t, file.ID, nodes[0].Children[0].Children[0].ID)
}

func TestTree_OtherOwnerInvisible(t *testing.T) {
	svc, _, _, _ := newTreeFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	folder, err := svc.CreateFolder(ctx, alice, "private", nil)
	require.NoError(t, err)

	_, err = svc.Tree(ctx, bob, &folder.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	nodes, err := svc.Tree(ctx, bob, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
