package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/plex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBoolFlag(t *testing.T) {
	f := Flags{FlagQuad: true, FlagPurifyToTets: nil}
	v, present, err := f.Bool(FlagQuad)
	require.NoError(t, err)
	assert.True(t, v)
	assert.True(t, present)

	v, present, err = f.Bool(FlagPurifyToTets)
	require.NoError(t, err)
	assert.False(t, v)
	assert.True(t, present)

	_, present, err = Flags{}.Bool(FlagQuad)
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = Flags{FlagQuad: "yes"}.Bool(FlagQuad)
	assert.ErrorIs(t, err, mberrors.ErrConfig)
}

func TestTransformFlag(t *testing.T) {
	tr, present, err := Flags{FlagTransform: &plex.RefineRegular{}}.Transform()
	require.NoError(t, err)
	assert.True(t, present)
	assert.IsType(t, &plex.RefineRegular{}, tr)

	tr, present, err = Flags{FlagTransform: "refine_to_box"}.Transform()
	require.NoError(t, err)
	assert.True(t, present)
	assert.IsType(t, &plex.RefineToBox{}, tr)

	tr, present, err = Flags{FlagTransform: nil}.Transform()
	require.NoError(t, err)
	assert.True(t, present)
	assert.Nil(t, tr)

	_, _, err = Flags{FlagTransform: 3}.Transform()
	assert.ErrorIs(t, err, mberrors.ErrConfig)
	_, _, err = Flags{FlagTransform: "spin"}.Transform()
	assert.ErrorIs(t, err, mberrors.ErrConfig)
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	err := Flags{"purify": true}.Validate()
	assert.ErrorIs(t, err, mberrors.ErrConfig)
	assert.NoError(t, Flags{}.Validate())
}

func TestLoadFlagsTOMLKeepsAbsence(t *testing.T) {
	path := writeFile(t, "flags.toml", "quad = false\ntransform = \"regular\"\n")
	flags, err := LoadFlags(path)
	require.NoError(t, err)
	assert.Len(t, flags, 2)
	_, present, _ := flags.Bool(FlagPurifyToTets)
	assert.False(t, present)
	v, present, _ := flags.Bool(FlagQuad)
	assert.True(t, present)
	assert.False(t, v)
	tr, _, err := flags.Transform()
	require.NoError(t, err)
	assert.IsType(t, &plex.RefineRegular{}, tr)

	_, err = LoadFlags(writeFile(t, "bad.toml", "twist = true\n"))
	assert.ErrorIs(t, err, mberrors.ErrConfig)
}

func TestLoadFlagsYAML(t *testing.T) {
	path := writeFile(t, "flags.yaml", "purify_to_tets: true\ntransform: null\n")
	flags, err := LoadFlags(path)
	require.NoError(t, err)
	v, present, err := flags.Bool(FlagPurifyToTets)
	require.NoError(t, err)
	assert.True(t, v && present)
	tr, present, err := flags.Transform()
	require.NoError(t, err)
	assert.True(t, present)
	assert.Nil(t, tr)
	_, present, _ = flags.Bool(FlagQuad)
	assert.False(t, present)

	empty, err := LoadFlags(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadFlags(writeFile(t, "bad.yml", "quad: maybe\n"))
	assert.ErrorIs(t, err, mberrors.ErrConfig)

	_, err = LoadFlags(writeFile(t, "flags.json", "{}"))
	assert.ErrorIs(t, err, mberrors.ErrConfig)
}
