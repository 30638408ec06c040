package billing

// =============================================================================
// SPAN - Inclusive day interval
// =============================================================================

// Span is an inclusive day interval [Start, End].
// Both bounds are part of the interval: a span covering a single day has
// Start == End and InclusiveDays() == 1.
type Span struct {
	Start Day
	End   Day
}

// InclusiveDays returns the number of days the span covers, counting both
// bounds. Returns a non-positive value for an inverted span; callers that
// emit spans must guard on this.
func (s Span) InclusiveDays() int {
	return InclusiveDays(s.Start, s.End)
}

// Contains returns true if the day is within the span [Start, End].
func (s Span) Contains(d Day) bool {
	return d.AfterOrEqual(s.Start) && d.BeforeOrEqual(s.End)
}

// Overlaps returns true if the two spans share at least one day.
func (s Span) Overlaps(other Span) bool {
	return s.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(s.End)
}

// Adjacent returns true if other starts exactly one day after s ends.
func (s Span) Adjacent(other Span) bool {
	return other.Start.Equal(s.End.AddDays(1))
}

// String returns a string representation of the span.
func (s Span) String() string {
	return "[" + s.Start.String() + ", " + s.End.String() + "]"
}
