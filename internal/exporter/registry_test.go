package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"aqicli/pkg/contracts/domain"
)

func testRegistry() *domain.EnrichedRegistry {
	reg := &domain.Registry{
		Columns: []string{"Name", "file_name", "Lat"},
		Stations: []domain.Station{
			{Name: "A", FileName: "a", Row: []string{"A", "a", "39.9"}},
			{Name: "B", FileName: "b", Row: []string{"B", "b"}},
		},
	}
	months := []domain.MonthKey{
		{Year: 2014, Month: time.January},
		{Year: 2014, Month: time.February},
	}
	enriched := domain.NewEnrichedRegistry(reg, months)
	enriched.Cells[0][0] = domain.Some(15)
	enriched.Cells[0][1] = domain.Some(0)
	return enriched
}

func TestRecords(t *testing.T) {
	assert.Equal(t, [][]string{
		{"A", "a", "39.9", "15", "0"},
		{"B", "b", "", "", ""},
	}, Records(testRegistry()))
}

func TestRegistryExporter_CSV(t *testing.T) {
	fm, dir := setupTestEnv(t)
	path := filepath.Join(dir, "ChinaAQIPoints_Updated.csv")

	require.NoError(t, NewRegistryExporter(fm).Export(path, testRegistry()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name,file_name,Lat,Jan2014,Feb2014\nA,a,39.9,15,0\nB,b,,,\n", string(content))
}

func TestRegistryExporter_Workbook(t *testing.T) {
	fm, dir := setupTestEnv(t)
	path := filepath.Join(dir, "ChinaAQIPoints_Updated.xlsx")

	require.NoError(t, NewRegistryExporter(fm).Export(path, testRegistry()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "file_name", "Lat", "Jan2014", "Feb2014"}, rows[0])
	assert.Equal(t, []string{"A", "a", "39.9", "15", "0"}, rows[1])

	// Missing months are blank cells
	for _, cell := range []string{"D3", "E3"} {
		v, err := f.GetCellValue(SheetName, cell)
		require.NoError(t, err)
		assert.Empty(t, v, cell)
	}
}
