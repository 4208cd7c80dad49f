// Package application provides application initialization and dependency wiring.
// It builds the capability registry, runs the settings assembler once, and
// creates the handler, router and HTTP server that expose the result, keeping
// the main package focused on CLI parsing and orchestration.
package application
