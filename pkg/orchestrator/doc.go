// Package orchestrator wires the loader → form → hydrate → renderer pipeline
// behind a single entry point, and runs the FLAT document checks shared by
// the CLI and the dev server.
package orchestrator
