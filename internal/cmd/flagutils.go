package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// FlagEnum is a pflag.Value restricted to a fixed set of choices.
type FlagEnum struct {
	Allowed []string
	Value   string
}

func NewEnum(allowed []string, d string) *FlagEnum {
	return &FlagEnum{
		Allowed: allowed,
		Value:   d,
	}
}

func (a FlagEnum) String() string {
	return a.Value
}

func (a *FlagEnum) Set(p string) error {
	p = strings.ToLower(strings.TrimSpace(p))
	if !slices.Contains(a.Allowed, p) {
		return fmt.Errorf("invalid value %q, must be one of %s", p, strings.Join(a.Allowed, ", "))
	}
	a.Value = p
	return nil
}

func (a *FlagEnum) Type() string {
	return "string"
}

// Completion offers the allowed values to shell completion.
func (a *FlagEnum) Completion() cobra.CompletionFunc {
	return cobra.FixedCompletions(a.Allowed, cobra.ShellCompDirectiveNoFileComp)
}
