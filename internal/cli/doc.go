// Package cli implements the command-line interface for bts-board.
//
// The cli package provides the Cobra-based commands: serve runs the web
// server, dates prints the date dropdown, and show fetches today's
// predictions or a past date's results and model performance into the
// terminal as text, JSON or HTML. It wires the config, source, view and web
// packages together.
package cli
