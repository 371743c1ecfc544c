package model

// Category classifies a safety report.
type Category string

const (
	CategoryTheft        Category = "theft"
	CategoryVandalism    Category = "vandalism"
	CategorySuspicious   Category = "suspicious_activity"
	CategoryHarassment   Category = "harassment"
	CategoryPoorLighting Category = "poorly_lit"
	CategoryEmergency    Category = "emergency"
	CategoryAssault      Category = "assault"
	CategoryDrugsAlcohol Category = "drugs_alcohol"
	CategoryNoise        Category = "noise"
	CategoryOther        Category = "other"
)

// AllCategories lists every report category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryTheft,
		CategoryVandalism,
		CategorySuspicious,
		CategoryHarassment,
		CategoryPoorLighting,
		CategoryEmergency,
		CategoryAssault,
		CategoryDrugsAlcohol,
		CategoryNoise,
		CategoryOther,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTheft, CategoryVandalism, CategorySuspicious, CategoryHarassment,
		CategoryPoorLighting, CategoryEmergency, CategoryAssault,
		CategoryDrugsAlcohol, CategoryNoise, CategoryOther:
		return true
	}
	return false
}

// DisplayName returns the human-readable category name used in notification copy.
func (c Category) DisplayName() string {
	switch c {
	case CategoryTheft:
		return "Theft"
	case CategoryVandalism:
		return "Vandalism"
	case CategorySuspicious:
		return "Suspicious Activity"
	case CategoryHarassment:
		return "Harassment"
	case CategoryPoorLighting:
		return "Poor Lighting"
	case CategoryEmergency:
		return "Emergency"
	case CategoryAssault:
		return "Assault"
	case CategoryDrugsAlcohol:
		return "Drugs/Alcohol"
	case CategoryNoise:
		return "Noise Complaint"
	default:
		return "Other"
	}
}

// Severity returns the fixed severity assigned to the category.
func (c Category) Severity() Severity {
	switch c {
	case CategoryEmergency, CategoryAssault:
		return SeverityCritical
	case CategoryTheft, CategoryHarassment:
		return SeverityHigh
	case CategoryVandalism, CategorySuspicious, CategoryDrugsAlcohol:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Severity ranks how serious a report category is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Priority returns the ordinal used for threshold comparisons (low=1 .. critical=4).
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
