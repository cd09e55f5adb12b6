package logout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealerops/dealerctl/internal/auth"
	"github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.Logout
)

var (
	logoutUse = Verb.String()

	logoutShort = i18n.T("root.verbs.logout.logoutShort", "Sign out")

	logoutLong = normalizers.LongDesc(i18n.T("root.verbs.logout.logoutLong",
		`Sign out by removing the stored session token of the active profile.`))

	logoutExamples = normalizers.Examples(i18n.T("root.verbs.logout.logoutExamples",
		fmt.Sprintf(`
	# Sign out of the default profile
	%[1]s logout
	# Sign out of another profile
	%[1]s logout --profile branch-2
	`, meta.CLIName)))
)

type logoutCmd struct {
	*cobra.Command
}

func (c *logoutCmd) validate(helper cmd.Helper) error {
	if len(helper.GetArgs()) > 0 {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("the logout command does not accept arguments"),
		}
	}
	return nil
}

func (c *logoutCmd) run(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}

	streams := helper.GetStreams()
	profileName := cfg.GetProfile()

	if auth.StoredToken(cfg) == "" {
		fmt.Fprintf(streams.Out, "No stored session found for profile %q\n", profileName)
		return nil
	}
	if err := auth.ClearToken(cfg); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to remove the stored session", err)
	}
	fmt.Fprintf(streams.Out, "Signed out of profile %q\n", profileName)
	return nil
}

func (c *logoutCmd) runE(cobraCmd *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(cobraCmd, args)
	if err := c.validate(helper); err != nil {
		return err
	}
	return c.run(helper)
}

func NewLogoutCmd() (*cobra.Command, error) {
	rv := logoutCmd{
		Command: &cobra.Command{
			Use:              logoutUse,
			Short:            logoutShort,
			Long:             logoutLong,
			Example:          logoutExamples,
			PersistentPreRun: resources.PersistVerb(Verb),
		},
	}
	rv.RunE = rv.runE
	return rv.Command, nil
}
