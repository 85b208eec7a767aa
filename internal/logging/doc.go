// Package logging provides a unified logging interface for the verification
// harness. It abstracts the underlying logging implementation, allowing
// consistent structured logging across the campaign runner, protocol drivers
// and engine adapters while supporting multiple backends.
package logging
