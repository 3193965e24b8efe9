package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// displayValue masks secrets unless reveal is set; identifiers are always shown.
func displayValue(c vaultv1.Credential, reveal bool) string {
	if reveal {
		return c.Value
	}
	return model.Credential{Type: model.CredentialType(c.Type), Value: c.Value}.DisplayValue()
}

func tsString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func printCredentials(tw *tabwriter.Writer, creds []vaultv1.Credential, reveal bool, indent string) {
	for _, c := range creds {
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", indent, c.Name, color.CyanString(c.Type), displayValue(c, reveal), c.ID)
	}
}

// printVault renders ungrouped credentials first, then each group with its members.
func printVault(w io.Writer, v *vaultv1.VaultResponse, reveal bool) {
	if len(v.Ungrouped) == 0 && len(v.Groups) == 0 {
		fmt.Fprintln(w, color.YellowString("!")+" vault is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(v.Ungrouped) > 0 {
		fmt.Fprintln(tw, color.New(color.Bold).Sprint("Ungrouped"))
		printCredentials(tw, v.Ungrouped, reveal, "  ")
	}
	for _, b := range v.Groups {
		fmt.Fprintf(tw, "%s (%d)\t\t\t%s\n", color.New(color.Bold).Sprint(b.Group.Name), len(b.Credentials), b.Group.ID)
		printCredentials(tw, b.Credentials, reveal, "  ")
	}
	_ = tw.Flush()
}

func printGroups(w io.Writer, gs []vaultv1.Group) {
	if len(gs) == 0 {
		fmt.Fprintln(w, color.YellowString("!")+" no groups")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range gs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Name, g.Description, tsString(g.CreatedAt), g.ID)
	}
	_ = tw.Flush()
}

func printAccount(w io.Writer, a *vaultv1.AccountResponse, reveal bool) {
	key, secret := a.APIKey, a.TOTPSecret
	if !reveal {
		key = displayValue(vaultv1.Credential{Type: string(model.TypeAPIKey), Value: key}, false)
		secret = displayValue(vaultv1.Credential{Type: string(model.TypeSecret), Value: secret}, false)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "API key\t%s\n", key)
	fmt.Fprintf(tw, "TOTP secret\t%s\n", secret)
	if reveal {
		fmt.Fprintf(tw, "TOTP URI\t%s\n", a.TOTPURI)
	}
	fmt.Fprintf(tw, "Updated\t%s\n", tsString(a.UpdatedAt))
	_ = tw.Flush()
}

// friendly turns gRPC statuses into short messages for the terminal.
func friendly(err error) error {
	st, isStatus := status.FromError(err)
	if !isStatus {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("unauthorized: %s", st.Message())
	case codes.NotFound:
		return fmt.Errorf("not found")
	case codes.AlreadyExists:
		return fmt.Errorf("already exists")
	case codes.InvalidArgument:
		return fmt.Errorf("invalid input: %s", st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("too many attempts, try again later")
	case codes.Unavailable:
		return fmt.Errorf("server unavailable: %s", st.Message())
	default:
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
}
