// Package logging provides the logging interface used by the allocator and
// batch layers. It abstracts the underlying implementation so components log
// consistently while the backend (zerolog by default, or the standard
// library's log package) stays swappable.
//
// Nothing in the arithmetic hot path logs: only public quantities such as
// widths, byte counts and job names are ever passed as fields.
package logging
