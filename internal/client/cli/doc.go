// Package cli provides the interactive tracker command-line client.
//
// It wires configuration, the session database, the HTTP transport, the
// remote session gateway and the session manager behind a small REPL. On
// start the previous session is restored and validated, and a background
// watcher keeps the connectivity mode and the session current.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartSessionWatcher and runREPL for details.
package cli
