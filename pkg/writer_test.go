package chamber

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportTableRoundTrip(t *testing.T) {
	table := parametricTable(t, testBuildConfig())
	dir := t.TempDir()
	path := filepath.Join(dir, "ar_co2.h5")

	require.NoError(t, WriteTransportTable(path, table, 4))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "temporary file left behind")
	assert.Equal(t, "ar_co2.h5", files[0].Name())

	read, err := ReadTransportTable(path, &table.Key)
	require.NoError(t, err)
	assert.Equal(t, table.ID, read.ID)
	assert.Equal(t, table.Key, read.Key)
	assert.Equal(t, table.Entries, read.Entries)

	unchecked, err := ReadTransportTable(path, nil)
	require.NoError(t, err)
	assert.Equal(t, table.Entries, unchecked.Entries)
}

func TestTransportTableOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.h5")
	first := parametricTable(t, testBuildConfig())
	second := parametricTable(t, testBuildConfig())

	require.NoError(t, WriteTransportTable(path, first, 0))
	require.NoError(t, WriteTransportTable(path, second, 0))

	read, err := ReadTransportTable(path, nil)
	require.NoError(t, err)
	assert.Equal(t, second.ID, read.ID)
}

func TestReadTransportTableMismatch(t *testing.T) {
	table := parametricTable(t, testBuildConfig())
	path := filepath.Join(t.TempDir(), "table.h5")
	require.NoError(t, WriteTransportTable(path, table, 0))

	want := table.Key
	want.Grid.Count = 20
	_, err := ReadTransportTable(path, &want)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableMismatch))
	var mismatch *TableMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "grid count", mismatch.Property)
	assert.Equal(t, "20", mismatch.Want)
	assert.Equal(t, "15", mismatch.Got)

	want = table.Key
	want.Gas = "ar:100"
	_, err = ReadTransportTable(path, &want)
	assert.ErrorIs(t, err, ErrTableMismatch)
}

func TestReadTransportTableMissing(t *testing.T) {
	_, err := ReadTransportTable(filepath.Join(t.TempDir(), "missing.h5"), nil)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
}

func TestWriteTransportTableBadDirectory(t *testing.T) {
	table := parametricTable(t, testBuildConfig())
	err := WriteTransportTable(filepath.Join(t.TempDir(), "no", "such", "dir.h5"), table, 0)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
}

func TestHdf5Strings(t *testing.T) {
	b, err := convertToHdf5String("ar:93,co2:7")
	require.NoError(t, err)
	assert.Equal(t, "ar:93,co2:7", convertFromHdf5String(b))

	long := make([]byte, STRLEN+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = convertToHdf5String(string(long))
	assert.Error(t, err)
}
