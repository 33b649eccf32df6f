package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "aqicli/internal/errors"
)

func TestFileValidator_ValidateRegistryFile(t *testing.T) {
	dir := t.TempDir()
	v := NewFileValidator(nil)

	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("Name,file_name\n"), 0644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"csv registry", write("registry.csv"), false},
		{"workbook registry", write("ChinaAQIPoints.xlsx"), false},
		{"unsupported extension", write("registry.txt"), true},
		{"excel lock file", write("~$ChinaAQIPoints.xlsx"), true},
		{"missing file", filepath.Join(dir, "absent.xlsx"), true},
		{"directory", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRegistryFile(tt.path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsStructural(err))
		})
	}
}

func TestFileValidator_ValidateStationDirectory(t *testing.T) {
	dir := t.TempDir()
	v := NewFileValidator(nil)

	assert.Equal(t, 0, v.ValidateStationDirectory(filepath.Join(dir, "absent"), ".csv"))
	assert.Equal(t, 0, v.ValidateStationDirectory(dir, ".csv"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.csv"), 0755))

	assert.Equal(t, 2, v.ValidateStationDirectory(dir, ".csv"))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	v := NewFileValidator(nil)

	require.NoError(t, v.ValidateOutputDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoFileExists(t, filepath.Join(dir, ".write_test"))
}
