package build

// Info describes the binary that is running.
type Info struct {
	Version string
	Commit  string
	Date    string
}

type Key struct{}

// InfoKey stores *Info on the command context.
var InfoKey = Key{}
