package domain

// Resource is a countable record type gated on the free tier.
type Resource string

const (
	ResourceJobs      Resource = "jobs"
	ResourceClients   Resource = "clients"
	ResourceDocuments Resource = "documents" // per job
)

// FreeTierLimits caps record counts for free accounts.
var FreeTierLimits = map[Resource]int{
	ResourceJobs:      6,
	ResourceClients:   6,
	ResourceDocuments: 6,
}

// CheckLimit reports whether an account on tier holding count records of
// resource may create one more.
func CheckLimit(tier Tier, resource Resource, count int) bool {
	if tier == TierPremium {
		return true
	}
	limit, ok := FreeTierLimits[resource]
	if !ok {
		return true
	}
	return count < limit
}
