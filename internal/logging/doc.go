// Package logging provides concrete implementations of the dwhetl.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes formatted messages to stderr (or any io.Writer)
//   - NullLogger: Discards all messages (useful for testing)
//   - RedactingLogger: Masks secret values before delegating to another Logger
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
