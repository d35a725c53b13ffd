package validation

import (
	"strings"
	"testing"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
)

func validDrugRecord() entities.CatalogRecord {
	return entities.CatalogRecord{
		Kind:               entities.KindDrugs,
		RegistrationNumber: "DRP-001",
		BrandName:          "Biogesic",
		GenericName:        "Paracetamol",
		DosageForm:         "tablet",
		Route:              "oral",
		DosageStrength:     "500 mg",
		Published:          "2024-05-15",
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	validator := NewDataValidator()

	rec := validDrugRecord()
	if err := validator.ValidateRecord(&rec); err != nil {
		t.Errorf("Expected no error for valid drug record, got: %v", err)
	}

	food := entities.CatalogRecord{
		Kind:               entities.KindFood,
		RegistrationNumber: "FR-4000001",
		ProductName:        "Instant Noodles",
		Registrant:         "Monde Nissin",
	}
	if err := validator.ValidateRecord(&food); err != nil {
		t.Errorf("Expected no error for valid food record, got: %v", err)
	}
}

func TestValidateRecord_Nil(t *testing.T) {
	validator := NewDataValidator()

	err := validator.ValidateRecord(nil)
	if err == nil {
		t.Error("Expected error for nil record")
	}
}

func TestValidateRecord_MissingFields(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		name   string
		mutate func(rec *entities.CatalogRecord)
	}{
		{"Drug without brand", func(rec *entities.CatalogRecord) { rec.BrandName = "" }},
		{"Drug without generic", func(rec *entities.CatalogRecord) { rec.GenericName = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validDrugRecord()
			tc.mutate(&rec)
			if err := validator.ValidateRecord(&rec); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateRecord_FoodRequiresNameOrRegistration(t *testing.T) {
	validator := NewDataValidator()

	rec := entities.CatalogRecord{Kind: entities.KindFood, Registrant: "Monde Nissin"}
	if err := validator.ValidateRecord(&rec); err == nil {
		t.Error("Expected error for food record with neither product name nor registration number")
	}

	rec.RegistrationNumber = "FR-1"
	if err := validator.ValidateRecord(&rec); err != nil {
		t.Errorf("Registration number alone should satisfy the requirement: %v", err)
	}
}

func TestValidateRecord_RegistrationFormat(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		name  string
		reg   string
		valid bool
	}{
		{"Drug format", "DRP-1234", true},
		{"Food format", "FR-4000001234567", true},
		{"With slash", "DRP-123/A", true},
		{"Lowercase", "drp-1234", false},
		{"Leading dash", "-DRP-1234", false},
		{"Too short", "DR", false},
		{"Too long", strings.Repeat("A", 41), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validDrugRecord()
			rec.RegistrationNumber = tc.reg
			err := validator.ValidateRecord(&rec)
			if tc.valid && err != nil {
				t.Errorf("Expected %q accepted, got: %v", tc.reg, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("Expected %q rejected", tc.reg)
			}
		})
	}
}

func TestValidateRecord_FieldLengthCaps(t *testing.T) {
	validator := NewDataValidator()

	rec := validDrugRecord()
	rec.BrandName = strings.Repeat("a", 201)
	if err := validator.ValidateRecord(&rec); err == nil {
		t.Error("Expected error for implausibly long brand name")
	}
}

func TestReportDataQuality(t *testing.T) {
	validator := NewDataValidator()

	noRoute := validDrugRecord()
	noRoute.RegistrationNumber = "DRP-002"
	noRoute.Route = ""

	noReg := validDrugRecord()
	noReg.RegistrationNumber = ""
	noReg.BrandName = "Other"

	duplicate := validDrugRecord()

	records := []entities.CatalogRecord{validDrugRecord(), noRoute, noReg, duplicate}
	report := validator.ReportDataQuality(records)

	if report.Records != 4 {
		t.Errorf("Expected 4 records, got %d", report.Records)
	}
	if len(report.DuplicateKeys) != 1 {
		t.Errorf("Expected 1 duplicate key, got %v", report.DuplicateKeys)
	}
	if report.MissingRegistration != 1 {
		t.Errorf("Expected 1 record without registration, got %d", report.MissingRegistration)
	}
	if report.MissingRoute != 1 {
		t.Errorf("Expected 1 record without route, got %d", report.MissingRoute)
	}
}

func TestCheckDuplicateRegistrations(t *testing.T) {
	validator := NewDataValidator()

	unique := []entities.CatalogRecord{
		{Kind: entities.KindDrugs, RegistrationNumber: "DRP-001"},
		{Kind: entities.KindDrugs, RegistrationNumber: "DRP-002"},
		{Kind: entities.KindDrugs}, // empty numbers never collide
		{Kind: entities.KindDrugs},
	}
	if err := validator.CheckDuplicateRegistrations(unique); err != nil {
		t.Errorf("Expected no duplicates, got: %v", err)
	}

	dupes := append(unique, entities.CatalogRecord{Kind: entities.KindDrugs, RegistrationNumber: "DRP-001"})
	err := validator.CheckDuplicateRegistrations(dupes)
	if err == nil {
		t.Fatal("Expected duplicate registration error")
	}
	if !strings.Contains(err.Error(), "DRP-001") {
		t.Errorf("Expected offender named in error, got: %v", err)
	}
}
