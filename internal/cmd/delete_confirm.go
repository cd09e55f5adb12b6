package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

type deleteContextKey string

const (
	deleteAutoApproveContextKey deleteContextKey = "dealerctl-delete-auto-approve"
)

// SetDeleteAutoApprove stores the --approve flag state.
func SetDeleteAutoApprove(cmd *cobra.Command, approved bool) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, deleteAutoApproveContextKey, approved)
	cmd.SetContext(ctx)
}

// DeleteAutoApproveEnabled reports whether the user opted to skip confirmation prompts.
func DeleteAutoApproveEnabled(helper Helper) bool {
	if helper == nil || helper.GetCmd() == nil {
		return false
	}
	ctx := helper.GetCmd().Context()
	if ctx == nil {
		return false
	}
	approved, _ := ctx.Value(deleteAutoApproveContextKey).(bool)
	return approved
}

// ConfirmDelete prompts the user to confirm destructive delete operations
// unless --approve was given.
func ConfirmDelete(helper Helper, description string, warnings ...string) error {
	if DeleteAutoApproveEnabled(helper) {
		return nil
	}

	streams := helper.GetStreams()
	fmt.Fprintf(streams.Out, "\nYou are about to delete %s\n", description)
	for _, warning := range warnings {
		if strings.TrimSpace(warning) != "" {
			fmt.Fprintln(streams.Out, warning)
		}
	}
	fmt.Fprint(streams.Out, "\nDo you want to continue? Type 'yes' to confirm: ")

	ctx := helper.GetCmd().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	answer, ok := readAnswer(ctx, promptInput(streams.In))
	if !ok || !strings.EqualFold(answer, "yes") {
		return PrepareExecutionErrorMsg(helper, "delete cancelled")
	}
	return nil
}

// promptInput reads from the controlling terminal when stdin is the process
// stdin, so piped input meant for the command is not consumed.
func promptInput(in io.Reader) io.Reader {
	if f, ok := in.(*os.File); ok && f.Fd() == os.Stdin.Fd() {
		if tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0); err == nil {
			return tty
		}
	}
	return in
}

// readAnswer returns the trimmed line typed by the user. ok is false when the
// context ends, an interrupt arrives, or input closes first.
func readAnswer(ctx context.Context, in io.Reader) (answer string, ok bool) {
	if c, isCloser := in.(io.Closer); isCloser && in != os.Stdin {
		defer c.Close()
	}

	lineCh := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			close(lineCh)
			return
		}
		lineCh <- line
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return "", false
	case <-sigCh:
		return "", false
	case line, more := <-lineCh:
		return strings.TrimSpace(line), more
	}
}
