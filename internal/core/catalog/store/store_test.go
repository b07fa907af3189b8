package store

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
)

const schema = `
model Maison {
  id     Int    @id
  taille Int
}
model Piece {
  id     Int @id
  maison Int @map("maison_id") @relation(Maison, "lespieces")
}
`

func TestLoadOrBuild(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := New(fs, "/cache", "1.2.0")
	require.NoError(t, err)

	_, err = s.Load(schema)
	assert.True(t, errors.Is(err, ErrMiss))

	reg, err := s.LoadOrBuild("schema.entql", schema)
	require.NoError(t, err)
	_, err = reg.GetRelation("Maison", "lespieces")
	require.NoError(t, err)

	exists, err := afero.Exists(fs, s.Path(schema))
	require.NoError(t, err)
	assert.True(t, exists)

	cached, err := s.Load(schema)
	require.NoError(t, err)
	f, err := cached.GetField("Piece", "maison")
	require.NoError(t, err)
	assert.Equal(t, "maison_id", f.Column)
}

func TestLoadStale(t *testing.T) {
	fs := afero.NewMemMapFs()
	old, err := New(fs, "/cache", "1.9.3")
	require.NoError(t, err)
	_, err = old.LoadOrBuild("schema.entql", schema)
	require.NoError(t, err)

	sameMajor, err := New(fs, "/cache", "1.10.0")
	require.NoError(t, err)
	_, err = sameMajor.Load(schema)
	assert.NoError(t, err)

	next, err := New(fs, "/cache", "2.0.0")
	require.NoError(t, err)
	_, err = next.Load(schema)
	assert.True(t, errors.Is(err, ErrStale))

	// a stale cache is rebuilt and overwritten
	_, err = next.LoadOrBuild("schema.entql", schema)
	require.NoError(t, err)
	_, err = next.Load(schema)
	assert.NoError(t, err)
}

func TestLoadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := New(fs, "/cache", "1.0.0")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, s.Path(schema), []byte("version: [oops"), 0o644))

	_, err = s.Load(schema)
	assert.True(t, errors.Is(err, ErrStale))
}

func TestLoadOrBuildParseError(t *testing.T) {
	s, err := New(afero.NewMemMapFs(), "/cache", "1.0.0")
	require.NoError(t, err)

	_, err = s.LoadOrBuild("bad.entql", "model {")
	assert.True(t, errors.Is(err, diagnostics.ParseError))
}

func TestNewInvalidVersion(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), "/cache", "not-a-version")
	assert.Error(t, err)
}
