package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/benaskins/roost/internal/bridge"
	"github.com/benaskins/roost/internal/menu"
	"github.com/benaskins/roost/internal/vault"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage vault accounts",
	Long:  "With a terminal, opens the interactive account menu; otherwise prints a plain listing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := openVault("cli")
		if err != nil {
			return err
		}

		if !term.IsTerminal(int(os.Stdout.Fd())) {
			menu.Fprint(os.Stdout, v)
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		b := bridge.New(v)
		go b.Run(ctx)

		return menu.Run(v, b)
	},
}

var accountsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List accounts",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := openVault("cli")
		if err != nil {
			return err
		}
		menu.Fprint(os.Stdout, v)
		return nil
	},
}

var accountsSwitchCmd = &cobra.Command{
	Use:   "switch <account-id>",
	Short: "Make an account active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := openVault("cli")
		if err != nil {
			return err
		}
		if err := v.SwitchActive(args[0]); err != nil {
			return err
		}
		fmt.Printf("Active account is now %s\n", args[0])
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:     "remove",
	Short:   "Remove the active account and its stored credentials",
	Aliases: []string{"rm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := openVault("cli")
		if err != nil {
			return err
		}
		id, err := v.RemoveActive()
		if err != nil {
			return err
		}
		fmt.Printf("Removed account %s\n", id)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active account",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := openVault("cli")
		if err != nil {
			return err
		}
		active, ok := v.ActiveAccount()
		if !ok {
			return errors.New("no active account")
		}
		fmt.Printf("%s (%s)\n", active.Username, active.ID)
		return nil
	},
}

// verifyCmd decrypts the active account's payload to prove the stored
// record is intact, without printing the secret itself.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the active account's stored credentials decrypt cleanly",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := openVault("cli")
		if err != nil {
			return err
		}
		creds, err := v.LoadActiveCredentials()
		if err != nil {
			if errors.Is(err, vault.ErrAuth) {
				return errors.New("stored credentials failed integrity verification")
			}
			return err
		}
		fmt.Printf("Credentials for %s verified\n", creds.Username)
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsSwitchCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(verifyCmd)
}
