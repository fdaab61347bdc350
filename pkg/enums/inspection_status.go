package enums

// InspectionStatus is recorded when an inspection completes.
type InspectionStatus string

const (
	InspectionStatusPassed InspectionStatus = "passed"
	InspectionStatusFailed InspectionStatus = "failed"
)

func (i InspectionStatus) String() string {
	return string(i)
}
