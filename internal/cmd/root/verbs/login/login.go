package login

import (
	"errors"
	"fmt"
	"strings"
	"time"

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
	Verb = verbs.Login

	usernameFlagName      = "username"
	passwordStdinFlagName = "password-stdin"
)

var (
	loginUse = Verb.String()

	loginShort = i18n.T("root.verbs.login.loginShort", "Sign in")

	loginLong = normalizers.LongDesc(i18n.T("root.verbs.login.loginLong",
		`Use login to sign in with a username and password.

The session token is stored in the active profile and is required by every
other command when auth.required is set.`))

	loginExamples = normalizers.Examples(i18n.T("root.verbs.login.loginExamples",
		fmt.Sprintf(`
		# Sign in, prompting for the password
		%[1]s login --username admin
		# Sign in from a script
		echo "$PASSWORD" | %[1]s login --username admin --password-stdin
		`, meta.CLIName)))
)

type loginCmd struct {
	*cobra.Command
}

func (c *loginCmd) validate(helper cmd.Helper) error {
	username, _ := helper.GetCmd().Flags().GetString(usernameFlagName)
	if strings.TrimSpace(username) == "" {
		return &cmd.ConfigurationError{Err: fmt.Errorf("--%s is required", usernameFlagName)}
	}
	fromStdin, _ := helper.GetCmd().Flags().GetBool(passwordStdinFlagName)
	if !fromStdin && !helper.GetStreams().IsInteractive() {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("no terminal to prompt for the password, use --%s", passwordStdinFlagName),
		}
	}
	return nil
}

func (c *loginCmd) run(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	svc, err := helper.GetService()
	if err != nil {
		return err
	}
	authenticator, err := auth.FromConfig(cfg, svc)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	streams := helper.GetStreams()
	username, _ := helper.GetCmd().Flags().GetString(usernameFlagName)
	username = strings.TrimSpace(username)

	fromStdin, _ := helper.GetCmd().Flags().GetBool(passwordStdinFlagName)
	if !fromStdin {
		fmt.Fprint(streams.ErrOut, "Password: ")
	}
	password, err := streams.ReadPassword()
	if !fromStdin {
		fmt.Fprintln(streams.ErrOut)
	}
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to read the password", err)
	}

	token, session, err := authenticator.Login(helper.GetContext(), username, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInactiveUser):
		logger.Info("sign in rejected", "username", username)
		return cmd.PrepareExecutionErrorFromErr(helper, err)
	case err != nil:
		return cmd.PrepareExecutionErrorWithHelper(helper, "sign in failed", err)
	}

	if err := auth.SaveToken(cfg, token); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to save the session", err)
	}
	logger.Info("signed in", "username", session.Username, "role", session.Role)
	fmt.Fprintf(streams.Out, "Signed in as %s (%s) until %s\n",
		session.Username, session.Role, session.ExpiresAt.In(time.Local).Format("02/01/2006 15:04"))
	return nil
}

func (c *loginCmd) runE(cobraCmd *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(cobraCmd, args)
	if e := c.validate(helper); e != nil {
		return e
	}
	return c.run(helper)
}

func NewLoginCmd() (*cobra.Command, error) {
	rv := loginCmd{
		Command: &cobra.Command{
			Use:              loginUse,
			Short:            loginShort,
			Long:             loginLong,
			Example:          loginExamples,
			Args:             cobra.NoArgs,
			PersistentPreRun: resources.PersistVerb(Verb),
		},
	}
	rv.Flags().String(usernameFlagName, "", "Username to sign in with.")
	rv.Flags().Bool(passwordStdinFlagName, false, "Read the password from stdin.")
	rv.RunE = rv.runE
	return rv.Command, nil
}
