package claims

// DefaultBulkRole is the role stamped on every account by the bulk run, the
// value Supabase expects in the JWT role claim.
const DefaultBulkRole = "authenticated"

const UsersCollection = "users"

type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeNoRole    Outcome = "no_role"
	OutcomeSet       Outcome = "set"
	OutcomeFailed    Outcome = "failed"
)

// AuthUser is the slice of an auth account the bulk run needs.
type AuthUser struct {
	UID   string
	Email string
}

// BulkResult summarizes a bulk claims run.
type BulkResult struct {
	Processed int
	Failed    int
}
