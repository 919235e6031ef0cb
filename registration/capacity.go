package registration

// Counts is the capacity tracker's view of one event, derived fresh from
// the store at read time. Voided registrations are excluded everywhere.
// No component caches these numbers into a capacity or confirmation
// decision; every reservation attempt re-reads them.
type Counts struct {
	Total   int
	Paid    int
	Arrived int
}
