package enums

// AlertTier grades a warehouse's projected utilisation.
type AlertTier string

const (
	AlertTierOK       AlertTier = "ok"
	AlertTierWarning  AlertTier = "warning"
	AlertTierCritical AlertTier = "critical"
	AlertTierOverflow AlertTier = "overflow"
)

// Severity orders tiers so that overflow > critical > warning > ok.
func (a AlertTier) Severity() int {
	switch a {
	case AlertTierOverflow:
		return 3
	case AlertTierCritical:
		return 2
	case AlertTierWarning:
		return 1
	default:
		return 0
	}
}

// Worse returns whichever of a and b is more severe, keeping a on ties.
func (a AlertTier) Worse(b AlertTier) AlertTier {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// IsActionable reports whether the tier warrants an alert event.
func (a AlertTier) IsActionable() bool {
	return a == AlertTierCritical || a == AlertTierOverflow
}
