package verbs

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	Get       = VerbValue("get")
	List      = VerbValue("list")
	Create    = VerbValue("create")
	Update    = VerbValue("update")
	Delete    = VerbValue("delete")
	Approve   = VerbValue("approve")
	Cancel    = VerbValue("cancel")
	View      = VerbValue("view")
	Login     = VerbValue("login")
	Logout    = VerbValue("logout")
	Export    = VerbValue("export")
	Import    = VerbValue("import")
	Dashboard = VerbValue("dashboard")
	Version   = VerbValue("version")
)

// Empty type to represent the _type_ Verb. Genesis is to support a key in a Context
type VerbKey struct{}

// Verb is a global instance of the VerbKey type
var Verb = VerbKey{}

// Will represent a specific Verb (get, create, update, delete, etc)
type VerbValue string

func (v VerbValue) String() string {
	return string(v)
}

// Mutates reports whether the verb changes stored records.
func (v VerbValue) Mutates() bool {
	switch v {
	case Create, Update, Delete, Approve, Cancel, Import:
		return true
	}
	return false
}

// NoPositionalArgs returns an Args validator that rejects positional arguments
// with a helpful message directing users to use the -f/--filename flag instead.
// Use this for commands (e.g. import) that accept input only via flags.
func NoPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q: use -f/--filename to specify input files", args[0])
	}
	return nil
}
