// Package validation provides record validation and data-quality reporting
// for the catalog pipelines.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/interfaces"
)

// Registration numbers on the source are short alphanumeric codes with
// dashes, e.g. DRP-1234 or FR-4000001234567. Pre-compiled once.
var registrationRx = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-/\. ]{2,39}$`)

// Compile-time check to ensure DataValidator implements RecordValidator
var _ interfaces.RecordValidator = (*DataValidator)(nil)

// DataValidator implements the interfaces.RecordValidator contract.
type DataValidator struct{}

// NewDataValidator creates a new record validator.
func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

// ValidateRecord checks that a canonical record carries the fields its
// catalog kind requires and that no field is implausibly long.
func (v *DataValidator) ValidateRecord(rec *entities.CatalogRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}

	switch rec.Kind {
	case entities.KindFood:
		if strings.TrimSpace(rec.ProductName) == "" && strings.TrimSpace(rec.RegistrationNumber) == "" {
			return fmt.Errorf("food record has neither product name nor registration number")
		}
	default:
		if strings.TrimSpace(rec.BrandName) == "" {
			return fmt.Errorf("drug record missing brand name")
		}
		if strings.TrimSpace(rec.GenericName) == "" {
			return fmt.Errorf("drug record missing generic name")
		}
	}

	if reg := rec.RegistrationNumber; reg != "" && !registrationRx.MatchString(reg) {
		return fmt.Errorf("registration number %q has unexpected format", reg)
	}

	for _, check := range []struct {
		name  string
		value string
		max   int
	}{
		{"brand name", rec.BrandName, 200},
		{"generic name", rec.GenericName, 300},
		{"product name", rec.ProductName, 300},
		{"registrant", rec.Registrant, 200},
		{"dosage form", rec.DosageForm, 100},
		{"route", rec.Route, 50},
	} {
		if len(check.value) > check.max {
			return fmt.Errorf("%s too long: %d characters", check.name, len(check.value))
		}
	}

	return nil
}

// ReportDataQuality summarizes the issues found in a run's record set:
// identity-key collisions that survived normalization, records without
// registration numbers, and drug records with no inferable route.
func (v *DataValidator) ReportDataQuality(records []entities.CatalogRecord) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{Records: len(records)}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		key := rec.IdentityKey()
		if seen[key] {
			report.DuplicateKeys = append(report.DuplicateKeys, key)
		}
		seen[key] = true

		if strings.TrimSpace(rec.RegistrationNumber) == "" {
			report.MissingRegistration++
		}
		if rec.Kind == entities.KindDrugs && strings.TrimSpace(rec.Route) == "" {
			report.MissingRoute++
		}
	}

	return report
}

// CheckDuplicateRegistrations returns an error when two records share a
// non-empty registration number, listing the offenders.
func (v *DataValidator) CheckDuplicateRegistrations(records []entities.CatalogRecord) error {
	count := make(map[string]int)
	for _, rec := range records {
		if reg := strings.TrimSpace(rec.RegistrationNumber); reg != "" {
			count[reg]++
		}
	}

	var duplicates []string
	for reg, n := range count {
		if n > 1 {
			duplicates = append(duplicates, reg)
		}
	}
	if len(duplicates) > 0 {
		return fmt.Errorf("found %d duplicate registration numbers: %s",
			len(duplicates), strings.Join(duplicates, ", "))
	}
	return nil
}
