package misc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckError(t *testing.T) {
	logger := NewLogger("MiscTest", false)
	assert.False(t, CheckError(nil, logger, Fatal))
	assert.True(t, CheckError(errors.New("expected"), logger, Warning))
	assert.True(t, CheckError(errors.New("expected"), logger, Debug))
	assert.Equal(t, "Warning", Warning.String())
}

func TestFiles(t *testing.T) {
	_, err := ReadFile("")
	assert.Error(t, err)
	_, err = CreateFile("")
	assert.Error(t, err)

	name := filepath.Join(t.TempDir(), "image.txt")
	file, err := CreateFile(name)
	require.NoError(t, err)
	_, err = file.WriteString("@@\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	contents, err := ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "@@\n", string(contents))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 5.0, LerpFloat64(0, 10, 0.5))
	assert.Equal(t, uint8(127), LerpUint8(0, 255, 0.5))
	assert.Equal(t, uint8(200), LerpUint8(200, 100, 0))
}

func TestGetFreePort(t *testing.T) {
	port, err := GetFreePort()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
}
