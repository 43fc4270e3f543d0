// Package axis orders period labels into the canonical sequence shared by
// all compared series.
//
// The comparator recognizes structured period forms first (2024-Q1, 2024Q1,
// 2024M03, 2024.03), falls back to calendar-date parsing, and finally to
// lexicographic order. Within one axis a single frequency is assumed; the
// comparator is a total order either way.
package axis
