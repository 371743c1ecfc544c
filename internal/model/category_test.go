package model

import "testing"

func TestCategorySeverity(t *testing.T) {
	tests := []struct {
		category Category
		want     Severity
	}{
		{CategoryEmergency, SeverityCritical},
		{CategoryAssault, SeverityCritical},
		{CategoryTheft, SeverityHigh},
		{CategoryHarassment, SeverityHigh},
		{CategoryVandalism, SeverityMedium},
		{CategorySuspicious, SeverityMedium},
		{CategoryDrugsAlcohol, SeverityMedium},
		{CategoryPoorLighting, SeverityLow},
		{CategoryNoise, SeverityLow},
		{CategoryOther, SeverityLow},
	}
	for _, tt := range tests {
		if got := tt.category.Severity(); got != tt.want {
			t.Errorf("%s severity = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestSeverityPriorityOrdering(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Priority() <= order[i-1].Priority() {
			t.Errorf("%s priority %d not above %s priority %d",
				order[i], order[i].Priority(), order[i-1], order[i-1].Priority())
		}
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range AllCategories() {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Category("jaywalking").Valid() {
		t.Error("unknown category should be invalid")
	}
}

func TestReportStatusValid(t *testing.T) {
	for _, s := range []ReportStatus{StatusPending, StatusApproved, StatusRejected} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if ReportStatus("archived").Valid() {
		t.Error("unknown status should be invalid")
	}
}
