package excel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecocausal/internal/errors"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestRead_WideFormatCSV(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,Sea Surface Temperature (°C),Chlorophyll (mg/m3)",
		"2023-01-15,14.2,8.1",
		"2023-02-15,14.8,7.6",
		"2023-03-15,15.9,6.9",
	}, "\n"))

	list, err := NewDataReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 series, got %d", len(list))
	}

	sst := list[0]
	if sst.ID != "sea_surface_temperature" {
		t.Errorf("expected slug ID, got %q", sst.ID)
	}
	if sst.Name != "Sea Surface Temperature" {
		t.Errorf("expected unit stripped from name, got %q", sst.Name)
	}
	if sst.Unit != "°C" {
		t.Errorf("expected unit °C, got %q", sst.Unit)
	}
	if len(sst.DataPoints) != 3 {
		t.Fatalf("expected 3 points, got %d", len(sst.DataPoints))
	}
	if sst.DataPoints[1].Date != "2023-02-15" || sst.DataPoints[1].Value != 14.8 {
		t.Errorf("unexpected point: %+v", sst.DataPoints[1])
	}
	if list[1].Unit != "mg/m3" {
		t.Errorf("expected mg/m3, got %q", list[1].Unit)
	}
}

func TestRead_MissingMarkersSkipped(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,Salinity",
		"2023-01-15,31.1",
		"2023-02-15,NA",
		"2023-03-15,-",
		"2023-04-15,",
		"2023-05-15,null",
		"2023-06-15,32.4",
	}, "\n"))

	list, err := NewDataReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := len(list[0].DataPoints); got != 2 {
		t.Fatalf("expected markers skipped leaving 2 points, got %d", got)
	}
	if list[0].DataPoints[1].Value != 32.4 {
		t.Errorf("unexpected surviving value: %v", list[0].DataPoints[1].Value)
	}
}

func TestRead_NonNumericCellFails(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,Wind Speed",
		"2023-01-15,4.1",
		"2023-02-15,strong",
	}, "\n"))

	_, err := NewDataReader(path).Read()
	if err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
	if errors.GetCode(err) != errors.CodeIngestError {
		t.Errorf("expected ingest error code, got %s", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "Wind Speed") {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestRead_RaggedRowsTolerated(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,A,B",
		"2023-01-15,1.0,2.0",
		"2023-02-15,1.5",
		"2023-03-15,2.0,3.0",
	}, "\n"))

	list, err := NewDataReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(list[0].DataPoints) != 3 {
		t.Errorf("column A should keep all 3 points, got %d", len(list[0].DataPoints))
	}
	if len(list[1].DataPoints) != 2 {
		t.Errorf("column B should skip the short row, got %d", len(list[1].DataPoints))
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv")).Read()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.GetCode(err) != errors.CodeIngestError {
		t.Errorf("expected ingest error code, got %s", errors.GetCode(err))
	}
}

func TestRead_HeaderOnlyFails(t *testing.T) {
	path := writeTempCSV(t, "Date,A")
	if _, err := NewDataReader(path).Read(); err == nil {
		t.Fatal("expected error for file without data rows")
	}
}

func TestReader_PortDispatch(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"Date,Upwelling Index",
		"2023-01-15,120",
		"2023-02-15,135",
	}, "\n"))

	list, err := NewReader().ReadSeries(path)
	if err != nil {
		t.Fatalf("ReadSeries failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "upwelling_index" {
		t.Fatalf("unexpected series: %+v", list)
	}
}

func TestSplitHeader(t *testing.T) {
	cases := []struct {
		header string
		name   string
		unit   string
	}{
		{"Sea Surface Temperature (°C)", "Sea Surface Temperature", "°C"},
		{"Chlorophyll", "Chlorophyll", ""},
		{"(lonely)", "(lonely)", ""},
		{"Nested (a (b))", "Nested (a", "b)"},
		{"Trailing ()", "Trailing ()", ""},
	}
	for _, tc := range cases {
		name, unit := splitHeader(tc.header)
		if name != tc.name || unit != tc.unit {
			t.Errorf("splitHeader(%q) = %q, %q; want %q, %q", tc.header, name, unit, tc.name, tc.unit)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Sea Surface Temperature": "sea_surface_temperature",
		"  Wind  Speed ":          "wind_speed",
		"pH (surface)":            "ph_surface",
		"NO3-":                    "no3",
	}
	for input, want := range cases {
		if got := slug(input); got != want {
			t.Errorf("slug(%q) = %q, want %q", input, got, want)
		}
	}
}
