package enum

type ClassStatus string

const (
	ClassStatusActive   ClassStatus = "active"
	ClassStatusInactive ClassStatus = "inactive"
)

func (t ClassStatus) String() string {
	return string(t)
}

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

func (t ClientStatus) String() string {
	return string(t)
}

type FilterOperator string

const (
	FilterOpEquals      FilterOperator = "equals"
	FilterOpContains    FilterOperator = "contains"
	FilterOpGreaterThan FilterOperator = "greater_than"
	FilterOpLessThan    FilterOperator = "less_than"
	FilterOpInList      FilterOperator = "in_list"
	FilterOpDateRange   FilterOperator = "date_range"
)

func (t FilterOperator) String() string {
	return string(t)
}

// IsKnown reports whether the operator is one the evaluator implements.
func (t FilterOperator) IsKnown() bool {
	switch t {
	case FilterOpEquals, FilterOpContains, FilterOpGreaterThan, FilterOpLessThan, FilterOpInList, FilterOpDateRange:
		return true
	default:
		return false
	}
}

// IsExclusionOperator reports whether the operator is allowed on exclusion rules.
// Exclusions support equality and substring tests only.
func (t FilterOperator) IsExclusionOperator() bool {
	return t == FilterOpEquals || t == FilterOpContains
}

type DistributionType string

const (
	DistributionRoundRobin DistributionType = "round_robin"
	DistributionTerritory  DistributionType = "territory"
	DistributionPercentage DistributionType = "percentage"
)

func (t DistributionType) String() string {
	return string(t)
}

func (t DistributionType) IsKnown() bool {
	switch t {
	case DistributionRoundRobin, DistributionTerritory, DistributionPercentage:
		return true
	default:
		return false
	}
}

type DigestFormat string

const (
	DigestFormatCSV  DigestFormat = "csv"
	DigestFormatXLSX DigestFormat = "xlsx"
)

func (t DigestFormat) String() string {
	return string(t)
}

func (t DigestFormat) IsKnown() bool {
	return t == DigestFormatCSV || t == DigestFormatXLSX
}
