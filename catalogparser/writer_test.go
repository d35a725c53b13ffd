package catalogparser

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/parquet-go/parquet-go"
)

func sampleDrugRecords() []entities.CatalogRecord {
	return []entities.CatalogRecord{
		{
			Kind:               entities.KindDrugs,
			RegistrationNumber: "DRP-001",
			BrandName:          "Biogesic",
			GenericName:        "Paracetamol",
			DosageForm:         "tablet",
			Route:              "oral",
			DosageStrength:     "500 mg",
			Published:          "2024-05-15",
		},
		{
			Kind:               entities.KindDrugs,
			RegistrationNumber: "DRP-002",
			BrandName:          "Ventolin",
			GenericName:        "Salbutamol",
			DosageForm:         "nebule",
			Route:              "inhalation",
			DosageStrength:     "2.5 mg/2.5 mL",
			Published:          "2024-05-15",
		},
	}
}

func TestOutputWriter_NamesByPublicationDate(t *testing.T) {
	writer := &OutputWriter{Dir: t.TempDir()}
	published := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	csvPath, parquetPath, err := writer.Write(entities.KindDrugs, sampleDrugRecords(), published, "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if filepath.Base(csvPath) != "fda_drug_2024-05-15.csv" {
		t.Errorf("Expected output named by publication date, got %s", filepath.Base(csvPath))
	}
	if filepath.Base(parquetPath) != "fda_drug_2024-05-15.parquet" {
		t.Errorf("Unexpected columnar path %s", filepath.Base(parquetPath))
	}
	for _, path := range []string{csvPath, parquetPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected output file %s: %v", path, err)
		}
	}
}

func TestOutputWriter_OverrideName(t *testing.T) {
	writer := &OutputWriter{Dir: t.TempDir()}
	published := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	csvPath, parquetPath, err := writer.Write(entities.KindDrugs, sampleDrugRecords(), published, "latest.csv")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(csvPath) != "latest.csv" || filepath.Base(parquetPath) != "latest.parquet" {
		t.Errorf("Override name not honored: %s / %s", csvPath, parquetPath)
	}
}

func TestOutputWriter_CSVContent(t *testing.T) {
	writer := &OutputWriter{Dir: t.TempDir()}
	published := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	csvPath, _, err := writer.Write(entities.KindDrugs, sampleDrugRecords(), published, "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Reading output back failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "brand_name" || rows[0][6] != "publication_date" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	if rows[1][0] != "Biogesic" || rows[1][6] != "2024-05-15" {
		t.Errorf("Unexpected first row %v", rows[1])
	}
}

func TestOutputWriter_ParquetRoundTrip(t *testing.T) {
	writer := &OutputWriter{Dir: t.TempDir()}
	published := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	_, parquetPath, err := writer.Write(entities.KindDrugs, sampleDrugRecords(), published, "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := parquet.ReadFile[drugRow](parquetPath)
	if err != nil {
		t.Fatalf("Reading parquet back failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 parquet rows, got %d", len(rows))
	}
	if rows[0].BrandName != "Biogesic" || rows[0].Route != "oral" {
		t.Errorf("Unexpected parquet row %+v", rows[0])
	}
}

func TestOutputWriter_FoodColumns(t *testing.T) {
	writer := &OutputWriter{Dir: t.TempDir()}
	published := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	records := []entities.CatalogRecord{{
		Kind:               entities.KindFood,
		RegistrationNumber: "FR-1",
		ProductName:        "Instant Noodles",
		BrandName:          "Lucky Me",
		Registrant:         "Monde Nissin",
		Published:          "2024-05-15",
	}}

	csvPath, _, err := writer.Write(entities.KindFood, records, published, "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(csvPath) != "fda_food_2024-05-15.csv" {
		t.Errorf("Unexpected food output name %s", filepath.Base(csvPath))
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "product_name" || rows[1][0] != "Instant Noodles" {
		t.Errorf("Unexpected food output: %v", rows[:2])
	}
}

// A failed write must never clobber the previous run's output.
func TestWriteAtomic_KeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	err := writeAtomic(path, func(f *os.File) error {
		f.WriteString("half-written")
		return os.ErrInvalid
	})
	if err == nil {
		t.Fatal("Expected fill error to surface")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous" {
		t.Errorf("Previous output clobbered: %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be cleaned up after failure")
	}
}
