// Package label holds the observation categories, the per-category selection
// store and the decision rule that maps a set of selections to one behaviour
// label. Everything here is pure: no I/O, no goroutines.
package label
