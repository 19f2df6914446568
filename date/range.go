package date

import "fmt"

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange returns the range of days from 'from' to 'to'.
func NewRange(from, to Date) Range { return Range{From: from, To: to} }

// Last returns the range of n days back from 'to', both ends included.
func Last(to Date, n int) Range { return Range{From: to.Add(-n), To: to} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// Days returns the number of days in the range.
func (r Range) Days() int {
	if r.To.Before(r.From) {
		return 0
	}
	return r.To.Sub(r.From) + 1
}

// String returns "from,to" as used in listing queries.
func (r Range) String() string { return fmt.Sprintf("%s,%s", r.From, r.To) }
