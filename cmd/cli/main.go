// Command ap is a command-line client for the AgentPass vault.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const callTimeout = 30 * time.Second

type app struct {
	addr      string
	caPath    string
	insecure  bool
	plaintext bool
	apiKey    string
	asJSON    bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	dialer dialFunc // tests only
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ap",
		Short:         "AgentPass vault client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.addr, "addr", envOr("AGENTPASS_ADDR", "localhost:8443"), "server gRPC address")
	pf.StringVar(&a.caPath, "cacert", "", "CA certificate (PEM)")
	pf.BoolVar(&a.insecure, "insecure", false, "skip TLS certificate verification (dev)")
	pf.BoolVar(&a.plaintext, "plaintext", false, "connect without TLS")
	pf.StringVar(&a.apiKey, "api-key", os.Getenv("AGENTPASS_API_KEY"), "authenticate with an account API key instead of the cached session")
	pf.BoolVar(&a.asJSON, "json", false, "print raw JSON")

	cmd.AddCommand(
		newVersionCmd(a),
		newSignUpCmd(a),
		newSignInCmd(a),
		newSignOutCmd(a),
		newWhoAmICmd(a),
		newAccountCmd(a),
		newGroupsCmd(a),
		newCredsCmd(a),
	)
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, callTimeout)
}

// readPassword takes the flag value or, when empty, the first line of stdin.
func (a *app) readPassword(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	fmt.Fprint(a.errOut, "Password: ")
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}

// main runs the root command and reports errors in red.
func main() {
	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}
