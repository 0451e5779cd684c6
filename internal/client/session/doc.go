// Package session is the client's session state machine.
//
// A single State value, owned by a Manager, says whether a user is signed
// in. It changes only through Reduce, applied to one of four events:
//
//	RestoreSession  end of bootstrap (once per process)
//	SignIn          a login confirmed by the authority
//	SignOut         an explicit sign-out
//	SessionExpired  the authority no longer knows the session
//
// Manager wraps each transition with its side effects:
//
//	Bootstrap       read the persisted record, corroborate it remotely
//	SignIn          persist first, then transition
//	SignOut         remote logout (best effort), transition, clear record
//	RefreshSession  liveness check; expire the session on failure
//
// How each operation reacts to failure is defined in package policy.
package session
