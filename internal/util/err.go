package util

import "github.com/spf13/cobra"

// CheckError prints err and exits; used during command tree construction
// where there is no caller to return to.
func CheckError(err error) {
	cobra.CheckErr(err)
}
