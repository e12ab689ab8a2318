// Package categorize classifies slots into behavioral categories.
//
// Each slot is compared against the population averages of the current run and
// evaluated against an ordered rule table; the first matching rule decides the
// slot's category and preferred zone. Slots matching no rule are Normal and have
// no zone preference.
//
// Default rule order:
//
//	Anchor     dwell       > avg * 1.3                 -> Middle
//	Magnet     conversion  > avg * 1.3                 -> Back
//	Risk       abandonment > avg * 1.3                 -> Front
//	Discovery  conversion  < avg * 0.7 and pickups < 5 -> Middle
//	Normal     otherwise                               -> any
//
// Thresholds are fixed and relative; they are never tuned per run.
package categorize
