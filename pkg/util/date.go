package util

import "time"

// DayStart truncates t to local midnight. Daily loss/profit counters reset
// on this boundary.
func DayStart(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
    ay, am, ad := a.Date()
    by, bm, bd := b.Date()
    return ay == by && am == bm && ad == bd
}
