package catalogparser

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/logging"
	"github.com/parquet-go/parquet-go"
)

// Output row shapes. Field order is the delimited column order.

type drugRow struct {
	BrandName          string `parquet:"brand_name"`
	GenericName        string `parquet:"generic_name"`
	DosageForm         string `parquet:"dosage_form"`
	Route              string `parquet:"route"`
	DosageStrength     string `parquet:"dosage_strength"`
	RegistrationNumber string `parquet:"registration_number"`
	PublicationDate    string `parquet:"publication_date"`
}

type foodRow struct {
	ProductName        string `parquet:"product_name"`
	BrandName          string `parquet:"brand_name"`
	Category           string `parquet:"category"`
	Registrant         string `parquet:"registrant"`
	RegistrationNumber string `parquet:"registration_number"`
	PublicationDate    string `parquet:"publication_date"`
}

var drugHeader = []string{"brand_name", "generic_name", "dosage_form", "route", "dosage_strength", "registration_number", "publication_date"}
var foodHeader = []string{"product_name", "brand_name", "category", "registrant", "registration_number", "publication_date"}

// OutputWriter persists one normalized table per catalog per run: a columnar
// Parquet artifact plus a delimited copy alongside for inspection. Files are
// named by the extracted publication date, never the run date, and are
// written through a temp file so a fatal error never clobbers the previous
// run's valid output.
type OutputWriter struct {
	Dir string
}

// Write stores the record set and returns the delimited and columnar paths.
func (w *OutputWriter) Write(kind entities.CatalogKind, records []entities.CatalogRecord, published time.Time, overrideName string) (csvPath, parquetPath string, err error) {
	if err := os.MkdirAll(w.Dir, 0750); err != nil {
		return "", "", fmt.Errorf("failed to create output directory %s: %w", w.Dir, err)
	}

	name := overrideName
	if name == "" {
		prefix := "fda_drug"
		if kind == entities.KindFood {
			prefix = "fda_food"
		}
		name = fmt.Sprintf("%s_%s.csv", prefix, published.Format(dateLayout))
	}
	csvPath = filepath.Join(w.Dir, name)
	parquetPath = strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".parquet"

	if err := writeAtomic(csvPath, func(f *os.File) error {
		return writeCSV(f, kind, records)
	}); err != nil {
		return "", "", fmt.Errorf("failed to write delimited output: %w", err)
	}

	if err := writeAtomic(parquetPath, func(f *os.File) error {
		return writeParquet(f, kind, records)
	}); err != nil {
		return "", "", fmt.Errorf("failed to write columnar output: %w", err)
	}

	logging.Info("Wrote output table",
		"catalog", string(kind),
		"records", len(records),
		"csv", csvPath,
		"parquet", parquetPath)
	return csvPath, parquetPath, nil
}

// writeAtomic fills a temp file and renames it over the target only on
// success, so partial writes never replace a prior good output.
func writeAtomic(path string, fill func(f *os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeCSV(f *os.File, kind entities.CatalogKind, records []entities.CatalogRecord) error {
	writer := csv.NewWriter(f)
	header := drugHeader
	if kind == entities.KindFood {
		header = foodHeader
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		var row []string
		if kind == entities.KindFood {
			row = []string{rec.ProductName, rec.BrandName, rec.Category, rec.Registrant, rec.RegistrationNumber, rec.Published}
		} else {
			row = []string{rec.BrandName, rec.GenericName, rec.DosageForm, rec.Route, rec.DosageStrength, rec.RegistrationNumber, rec.Published}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeParquet(f *os.File, kind entities.CatalogKind, records []entities.CatalogRecord) error {
	if kind == entities.KindFood {
		rows := make([]foodRow, 0, len(records))
		for _, rec := range records {
			rows = append(rows, foodRow{
				ProductName:        rec.ProductName,
				BrandName:          rec.BrandName,
				Category:           rec.Category,
				Registrant:         rec.Registrant,
				RegistrationNumber: rec.RegistrationNumber,
				PublicationDate:    rec.Published,
			})
		}
		return writeParquetRows(f, rows)
	}

	rows := make([]drugRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, drugRow{
			BrandName:          rec.BrandName,
			GenericName:        rec.GenericName,
			DosageForm:         rec.DosageForm,
			Route:              rec.Route,
			DosageStrength:     rec.DosageStrength,
			RegistrationNumber: rec.RegistrationNumber,
			PublicationDate:    rec.Published,
		})
	}
	return writeParquetRows(f, rows)
}

func writeParquetRows[T any](f *os.File, rows []T) error {
	writer := parquet.NewGenericWriter[T](f)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			writer.Close()
			return err
		}
	}
	return writer.Close()
}
