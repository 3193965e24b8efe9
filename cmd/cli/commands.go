package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/model"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "ap %s (%s)\n", version, buildDate)
		},
	}
}

// ---- session ----

func sessionCmd(a *app, use, short string, call func(ctx context.Context, c vaultv1.VaultClient, email, pw string) (*vaultv1.SessionResponse, error)) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.readPassword(password)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			cc, client, err := a.dial(ctx, nil)
			if err != nil {
				return err
			}
			defer cc.Close()

			s, err := call(ctx, client, email, pw)
			if err != nil {
				return friendly(err)
			}
			if err := saveToken(tokenFile{AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt, Email: s.User.Email}); err != nil {
				return err
			}
			success(a.out, "signed in as %s", color.CyanString(s.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignUpCmd(a *app) *cobra.Command {
	return sessionCmd(a, "signup", "Create an account and sign in",
		func(ctx context.Context, c vaultv1.VaultClient, email, pw string) (*vaultv1.SessionResponse, error) {
			return c.SignUp(ctx, &vaultv1.SignUpRequest{Email: email, Password: pw})
		})
}

func newSignInCmd(a *app) *cobra.Command {
	return sessionCmd(a, "signin", "Sign in and cache the session",
		func(ctx context.Context, c vaultv1.VaultClient, email, pw string) (*vaultv1.SessionResponse, error) {
			return c.SignIn(ctx, &vaultv1.SignInRequest{Email: email, Password: pw})
		})
}

func newSignOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the cached session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tf, err := loadToken()
			if err != nil {
				// nothing to revoke; make sure no stale file is left
				_ = clearToken()
				success(a.out, "signed out")
				return nil
			}
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			cc, client, err := a.dial(ctx, map[string]string{"authorization": "Bearer " + tf.AccessToken})
			if err != nil {
				return err
			}
			defer cc.Close()
			if _, err := client.SignOut(ctx, &vaultv1.SignOutRequest{}); err != nil {
				return friendly(err)
			}
			if err := clearToken(); err != nil {
				return err
			}
			success(a.out, "signed out")
			return nil
		},
	}
}

// protected runs fn with an authenticated client.
func (a *app) protected(cmd *cobra.Command, fn func(c vaultv1.VaultClient) error) error {
	md, err := a.authMD()
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()
	cc, client, err := a.dial(ctx, md)
	if err != nil {
		return err
	}
	defer cc.Close()
	cmd.SetContext(ctx)
	if err := fn(client); err != nil {
		return friendly(err)
	}
	return nil
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				resp, err := c.WhoAmI(cmd.Context(), &vaultv1.WhoAmIRequest{})
				if err != nil {
					return err
				}
				if a.asJSON {
					return printJSON(a.out, resp.User)
				}
				fmt.Fprintf(a.out, "%s\t%s\n", resp.User.Email, resp.User.ID)
				return nil
			})
		},
	}
}

// ---- account ----

func newAccountCmd(a *app) *cobra.Command {
	var reveal bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the API key and TOTP enrollment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				acc, err := c.GetAccount(cmd.Context(), &vaultv1.GetAccountRequest{})
				if err != nil {
					return err
				}
				if a.asJSON {
					return printJSON(a.out, acc)
				}
				printAccount(a.out, acc, reveal)
				return nil
			})
		},
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "show secrets in clear")

	regen := &cobra.Command{
		Use:   "regen-key",
		Short: "Replace the account API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				acc, err := c.RegenerateAPIKey(cmd.Context(), &vaultv1.RegenerateAPIKeyRequest{})
				if err != nil {
					return err
				}
				if a.asJSON {
					return printJSON(a.out, acc)
				}
				success(a.out, "new API key %s", acc.APIKey)
				return nil
			})
		},
	}

	verify := &cobra.Command{
		Use:   "verify-totp CODE",
		Short: "Check a code from your authenticator app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				resp, err := c.VerifyTOTP(cmd.Context(), &vaultv1.VerifyTOTPRequest{Code: strings.TrimSpace(args[0])})
				if err != nil {
					return err
				}
				if !resp.Valid {
					return fmt.Errorf("code rejected")
				}
				success(a.out, "code accepted")
				return nil
			})
		},
	}

	cmd := &cobra.Command{Use: "account", Short: "Account API key and TOTP"}
	cmd.AddCommand(show, regen, verify)
	return cmd
}

// ---- groups ----

func newGroupsCmd(a *app) *cobra.Command {
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				resp, err := c.ListGroups(cmd.Context(), &vaultv1.ListGroupsRequest{})
				if err != nil {
					return err
				}
				if a.asJSON {
					return printJSON(a.out, resp.Groups)
				}
				printGroups(a.out, resp.Groups)
				return nil
			})
		},
	}

	var description string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				resp, err := c.CreateGroup(cmd.Context(), &vaultv1.CreateGroupRequest{Name: args[0], Description: description})
				if err != nil {
					return err
				}
				success(a.out, "group %s created (%s)", resp.Group.Name, resp.Group.ID)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "group description")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a group and every credential in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				if _, err := c.DeleteGroup(cmd.Context(), &vaultv1.DeleteGroupRequest{ID: args[0]}); err != nil {
					return err
				}
				success(a.out, "group deleted")
				return nil
			})
		},
	}

	cmd := &cobra.Command{Use: "groups", Short: "Manage credential groups"}
	cmd.AddCommand(list, add, rm)
	return cmd
}

// ---- credentials ----

func newCredsCmd(a *app) *cobra.Command {
	var reveal bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the vault, ungrouped credentials first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				v, err := c.GetVault(cmd.Context(), &vaultv1.GetVaultRequest{})
				if err != nil {
					return err
				}
				if a.asJSON {
					return printJSON(a.out, v)
				}
				printVault(a.out, v, reveal)
				return nil
			})
		},
	}
	list.Flags().BoolVar(&reveal, "reveal", false, "show values in clear")

	var in vaultv1.CreateCredentialRequest
	types := make([]string, 0, len(model.CredentialTypes))
	for _, t := range model.CredentialTypes {
		types = append(types, string(t))
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Store a credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				resp, err := c.CreateCredential(cmd.Context(), &in)
				if err != nil {
					return err
				}
				success(a.out, "credential %s stored (%s)", resp.Credential.Name, resp.Credential.ID)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&in.Name, "name", "n", "", "credential name")
	add.Flags().StringVarP(&in.Type, "type", "t", string(model.TypePassword), "one of "+strings.Join(types, ", "))
	add.Flags().StringVarP(&in.Value, "value", "v", "", "secret value")
	add.Flags().StringVarP(&in.GroupID, "group", "g", "", "group id (ungrouped when empty)")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("value")

	var value string
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Replace a credential's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				resp, err := c.UpdateCredentialValue(cmd.Context(), &vaultv1.UpdateCredentialValueRequest{ID: args[0], Value: value})
				if err != nil {
					return err
				}
				success(a.out, "updated at %s", tsString(resp.ModifiedAt))
				return nil
			})
		},
	}
	edit.Flags().StringVarP(&value, "value", "v", "", "new value")
	_ = edit.MarkFlagRequired("value")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(cmd, func(c vaultv1.VaultClient) error {
				if _, err := c.DeleteCredential(cmd.Context(), &vaultv1.DeleteCredentialRequest{ID: args[0]}); err != nil {
					return err
				}
				success(a.out, "credential deleted")
				return nil
			})
		},
	}

	cmd := &cobra.Command{Use: "creds", Short: "Manage credentials"}
	cmd.AddCommand(list, add, edit, rm)
	return cmd
}
