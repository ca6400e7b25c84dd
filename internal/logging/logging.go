// Package logging wraps the standard library log package with the same
// plain, print-style logging the teacher library uses at dictionary-load
// time ("Объединенный файл словаря не найден...", log.Fatalf on
// unrecoverable load errors). Cube's data loaders are the only place this
// gets used; recognition itself does not log.
package logging

import "log"

// Warnf logs a recoverable problem, e.g. an optional data file (folding
// sets) that's missing or partially malformed.
func Warnf(format string, args ...any) {
	log.Printf("cube: warning: "+format, args...)
}

// Infof logs routine progress, e.g. which language data files were loaded.
func Infof(format string, args ...any) {
	log.Printf("cube: "+format, args...)
}

// Fatalf logs an unrecoverable error and exits. Reserved for command-line
// entry points; library code must return errors instead.
func Fatalf(format string, args ...any) {
	log.Fatalf("cube: fatal: "+format, args...)
}
