package catalogparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
)

// RawTable is a parsed delimited export: the source header row plus the data
// rows, untouched apart from cell trimming.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ParseCSVTable reads a CSV payload into a RawTable. An export with no data
// rows is treated as malformed: the source always has at least one product.
func ParseCSVTable(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV payload: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("export returned no data rows")
	}

	headers := make([]string, len(all[0]))
	for i, h := range all[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &RawTable{Headers: headers, Rows: all[1:]}, nil
}

var headerCleanRx = regexp.MustCompile(`[^a-z0-9]+`)

// canonicalHeader collapses a source header to a comparable key:
// "Registration Number " -> "registration_number".
func canonicalHeader(name string) string {
	return strings.Trim(headerCleanRx.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// Column-name mapping is table-driven per catalog kind: a fixed dictionary of
// accepted source header variants per canonical field. Unrecognized extra
// columns are dropped; missing required columns are a SchemaMismatchError.
type columnSpec struct {
	canonical string
	variants  []string
	required  bool
}

var drugColumns = []columnSpec{
	{"registration_number", []string{"registration_number", "reg_number", "registration_no", "fda_registration_number"}, false},
	{"brand_name", []string{"brand_name", "brandname", "brand"}, true},
	{"generic_name", []string{"generic_name", "genericname", "generic"}, true},
	{"dosage_form", []string{"dosage_form", "form"}, false},
	{"dosage_strength", []string{"dosage_strength", "strength"}, false},
}

var foodColumns = []columnSpec{
	{"registration_number", []string{"registration_number", "reg_number", "registration_no"}, false},
	{"product_name", []string{"product_name", "productname", "name_of_product"}, true},
	{"brand_name", []string{"brand_name", "brandname", "brand"}, false},
	{"category", []string{"category", "product_category", "product_type", "food_category"}, false},
	{"registrant", []string{"registrant", "company_name", "company", "establishment"}, false},
}

func columnsFor(kind entities.CatalogKind) []columnSpec {
	if kind == entities.KindFood {
		return foodColumns
	}
	return drugColumns
}

// resolveColumns maps each canonical field to a source column index, or
// returns a SchemaMismatchError naming the required fields that are absent.
func resolveColumns(kind entities.CatalogKind, headers []string) (map[string]int, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := canonicalHeader(h)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	resolved := make(map[string]int)
	var missing []string
	for _, col := range columnsFor(kind) {
		found := false
		for _, variant := range col.variants {
			if i, ok := index[variant]; ok {
				resolved[col.canonical] = i
				found = true
				break
			}
		}
		if !found && col.required {
			missing = append(missing, col.canonical)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{Catalog: kind, Missing: missing}
	}
	return resolved, nil
}

// Normalize maps a raw export table onto canonical catalog records: headers
// resolved through the variant tables, every field cleaned, drug form/route
// inferred, and duplicates collapsed by identity key. The published date is
// stamped onto every record so the output never depends on the run date.
func Normalize(kind entities.CatalogKind, table *RawTable, published string) ([]entities.CatalogRecord, error) {
	resolved, err := resolveColumns(kind, table.Headers)
	if err != nil {
		return nil, err
	}

	cell := func(row []string, field string) string {
		i, ok := resolved[field]
		if !ok || i >= len(row) {
			return ""
		}
		return cleanField(row[i])
	}

	records := make([]entities.CatalogRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := entities.CatalogRecord{
			Kind:               kind,
			RegistrationNumber: strings.ToUpper(cell(row, "registration_number")),
			Published:          published,
		}
		switch kind {
		case entities.KindFood:
			rec.ProductName = cell(row, "product_name")
			rec.BrandName = cell(row, "brand_name")
			rec.Category = cell(row, "category")
			rec.Registrant = cell(row, "registrant")
			if rec.ProductName == "" && rec.BrandName == "" && rec.Registrant == "" && rec.RegistrationNumber == "" {
				continue
			}
		default:
			rec.BrandName = cell(row, "brand_name")
			rec.GenericName = cell(row, "generic_name")
			rec.DosageStrength = cell(row, "dosage_strength")
			rawForm := cell(row, "dosage_form")
			form, route := InferFormAndRoute(rawForm)
			if form != "" {
				rec.DosageForm = form
			} else {
				rec.DosageForm = rawForm
			}
			rec.Route = route
			// Rows without both names cannot feed the brand map
			if rec.BrandName == "" || rec.GenericName == "" {
				continue
			}
		}
		records = append(records, rec)
	}

	return DedupeRecords(records), nil
}

// DedupeRecords collapses records sharing an identity key, keeping the
// instance with the more complete field set. Exact ties keep the first-seen
// instance, and output order is first-seen order. Identity is judged after
// normalization: rows differing only in whitespace before cleaning are
// duplicates here.
func DedupeRecords(records []entities.CatalogRecord) []entities.CatalogRecord {
	out := make([]entities.CatalogRecord, 0, len(records))
	byKey := make(map[string]int, len(records))
	for _, rec := range records {
		key := rec.IdentityKey()
		if at, seen := byKey[key]; seen {
			if rec.Completeness() > out[at].Completeness() {
				out[at] = rec
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, rec)
	}
	return out
}
