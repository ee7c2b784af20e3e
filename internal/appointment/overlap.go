package appointment

import "time"

// Overlaps reports whether the candidate range [cs, ce] collides with an
// existing range [es, ee] of the same staff member. A collision is any of:
// the existing range contains the candidate start, contains the candidate
// end, or lies entirely inside the candidate. Ranges that only touch at an
// endpoint do not collide.
//
// conflictPredicate is the same test in SQL and the two must agree.
func Overlaps(es, ee, cs, ce time.Time) bool {
	startsInside := !es.After(cs) && ee.After(cs)
	endsInside := es.Before(ce) && !ee.Before(ce)
	enclosed := !es.Before(cs) && !ee.After(ce)
	return startsInside || endsInside || enclosed
}

// conflictPredicate matches rows of alias a against (cs, cs, ce, ce, cs, ce).
const conflictPredicate = `(
       (a.start_time <= ? AND a.end_time > ?)
    OR (a.start_time < ? AND a.end_time >= ?)
    OR (a.start_time >= ? AND a.end_time <= ?)
)`

func conflictArgs(cs, ce any) []any {
	return []any{cs, cs, ce, ce, cs, ce}
}
