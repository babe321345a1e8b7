// Package logger is the player's central log. Entries are tagged by the
// component that made them and identical adjacent entries are collapsed
// into a repeat count. The log keeps a bounded history that the fault
// overlay and the command line diagnostic read back with Tail.
package logger

import "io"

// maximum number of entries in the central logger.
const maxCentral = 256

var central = newLogger(maxCentral)

// Log adds an entry to the central logger.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(tag, detail string, args ...any) {
	central.logf(tag, detail, args...)
}

// Clear all entries from the central logger.
func Clear() {
	central.clear()
}

// SetEcho prints new entries to output as they are logged. A nil output
// turns echoing off.
func SetEcho(output io.Writer) {
	central.setEcho(output)
}

// Tail writes the last N entries to output.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// Entries returns a copy of the current log.
func Entries() []Entry {
	return central.copy()
}
