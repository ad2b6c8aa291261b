// Package application provides application initialization and dependency wiring.
// It loads the metadata manifest and builds the flag reader, handlers, router
// and HTTP server, keeping the main package focused on CLI parsing and
// orchestration.
package application
