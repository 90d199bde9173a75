package tablestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tables.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTable() *resource.LiveTable {
	table := resource.NewLiveTable()
	table.Put(2, resource.TextureHandle(7))
	table.Update(2, func(e *resource.LiveResource) {
		e.Target = uint32(gl.Texture3D)
		e.InternalFormat = uint32(gl.RGBA8)
		e.Levels = 1
		e.Extent = gputypes.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 2}
		e.Dimension = gl.GPUDimension(gl.Texture3D)
	})
	table.Put(1, resource.TextureHandle(5))
	table.Update(1, func(e *resource.LiveResource) {
		e.Target = uint32(gl.Texture2D)
		e.InternalFormat = uint32(gl.R8)
		e.Levels = 3
		e.Extent = gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}
	})
	return table
}

func TestSaveAndLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	session := uuid.New()

	require.NoError(t, s.Save(ctx, session, sampleTable()))

	rows, err := s.Load(ctx, session)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, uint64(1), rows[0].ResourceID)
	assert.Equal(t, uint32(5), rows[0].Handle)
	assert.Equal(t, uint32(gl.R8), rows[0].InternalFormat)
	assert.Equal(t, int32(3), rows[0].Levels)
	assert.Equal(t, uint32(4), rows[0].Width)

	assert.Equal(t, uint64(2), rows[1].ResourceID)
	assert.Equal(t, uint32(gl.Texture3D), rows[1].Target)
	assert.Equal(t, uint32(2), rows[1].Depth)
	assert.Equal(t, uint32(gl.GPUDimension(gl.Texture3D)), rows[1].Dimension)
}

func TestSaveReplacesSession(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	session := uuid.New()

	table := sampleTable()
	require.NoError(t, s.Save(ctx, session, table))

	table.Remove(2)
	table.Update(1, func(e *resource.LiveResource) { e.Levels = 1 })
	require.NoError(t, s.Save(ctx, session, table))

	rows, err := s.Load(ctx, session)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].Levels)

	require.NoError(t, s.Save(ctx, session, resource.NewLiveTable()))
	rows, err = s.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSessionsAreSeparate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, s.Save(ctx, a, sampleTable()))
	one := resource.NewLiveTable()
	one.Put(9, resource.TextureHandle(1))
	require.NoError(t, s.Save(ctx, b, one))

	rows, err := s.Load(ctx, a)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.Load(ctx, b)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(9), rows[0].ResourceID)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, sessions)
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.db")
	session := uuid.New()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), session, sampleTable()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rows, err := s.Load(context.Background(), session)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
