// Package normalise holds the date and name helpers shared by all providers:
// date parsing, inclusive date-range filtering, date-fns style formatting,
// locale month translation and file name rendering.
package normalise
