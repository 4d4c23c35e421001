// Package cli implements accountctl, the operator console for the account
// service. Commands run once from the command line or interactively in a
// REPL; they talk to the database directly through the account service.
package cli
