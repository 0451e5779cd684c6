// Package policy is the single table describing how each session operation
// behaves when it fails. Callers consult it instead of encoding the rule in
// their own error branches.
package policy

import "fmt"

// Operation names a session operation.
type Operation string

const (
	Bootstrap      Operation = "bootstrap"
	SignIn         Operation = "sign_in"
	SignOut        Operation = "sign_out"
	RefreshSession Operation = "refresh_session"
	Login          Operation = "login"
	CheckSession   Operation = "check_session"
	Logout         Operation = "logout"
)

// Rule is the failure behaviour of one operation. Every operation fails
// closed: a failure never leaves the client more authenticated than before.
// The fields list what happens on top of that.
type Rule struct {
	// ClearStore means the persisted session record is removed on failure.
	ClearStore bool
	// ReportSuccess means the failure is logged but the caller sees success.
	ReportSuccess bool
}

var table = map[Operation]Rule{
	Bootstrap:      {ClearStore: true},
	SignIn:         {},
	SignOut:        {ClearStore: true},
	RefreshSession: {ClearStore: true},
	Login:          {},
	CheckSession:   {ClearStore: true},
	Logout:         {ClearStore: true, ReportSuccess: true},
}

// For returns the rule for op. Unknown operations panic: every operation
// must be listed in the table.
func For(op Operation) Rule {
	r, ok := table[op]
	if !ok {
		panic(fmt.Sprintf("policy: no failure rule for %q", op))
	}
	return r
}

// Operations lists every operation with a rule, in a stable order.
func Operations() []Operation {
	return []Operation{Bootstrap, SignIn, SignOut, RefreshSession, Login, CheckSession, Logout}
}
