package index

// State is a server-reported index status. The set of values is open-ended;
// only StatusPending is treated specially.
type State string

// StatusPending marks an index that is still being built.
const StatusPending State = "PENDING"

// StatusReady is reported by backends that have no native status string.
const StatusReady State = "READY"

// Status is one index as reported by the database. It is never mutated
// locally, always re-fetched.
type Status struct {
	Name      string
	Status    State
	Queryable bool
}

// Pending reports whether the index is still being built.
func (s Status) Pending() bool { return s.Status == StatusPending }

// CreationResult is the acknowledgement of one creation request.
type CreationResult struct {
	Name           string
	Kind           Kind
	Ack            string
	AlreadyExisted bool
}

// Settled reports whether statuses describe a converged collection: the
// list is non-empty, nothing is pending, and every expected name is present.
func Settled(statuses []Status, expected []string) bool {
	if len(statuses) == 0 {
		return false
	}
	present := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		if s.Pending() {
			return false
		}
		present[s.Name] = true
	}
	for _, name := range expected {
		if !present[name] {
			return false
		}
	}
	return true
}
