package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sheetviz-cli/internal/config"
)

var accPassword string

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Register, log in to, or delete an upload service account",
}

// readPassword returns --password, or the first line of stdin when the flag is empty.
func readPassword(cmd *cobra.Command) (string, error) {
	if accPassword != "" {
		return accPassword, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

var accountRegisterCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword(cmd)
		if err != nil {
			return err
		}
		cl, err := newClient()
		if err != nil {
			return err
		}
		if err := cl.Register(cmd.Context(), args[0], pw); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Registered %s. Log in with `sheetviz account login %s`.\n", args[0], args[0])
		return nil
	},
}

var accountLoginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and store the session token in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword(cmd)
		if err != nil {
			return err
		}
		cl, err := newClient()
		if err != nil {
			return err
		}
		res, err := cl.Login(cmd.Context(), args[0], pw)
		if err != nil {
			return err
		}
		cfg.Token = res.Token
		cfg.Username = res.UserID
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", res.UserID)
		return nil
	},
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		c.Token, c.Username = "", ""
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the current account and every upload it owns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := authedClient()
		if err != nil {
			return err
		}
		if err := cl.DeleteAccount(cmd.Context()); err != nil {
			return err
		}
		name := cfg.Username
		cfg.Token, cfg.Username = "", ""
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Account %s and its uploads deleted\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountRegisterCmd, accountLoginCmd, accountLogoutCmd, accountDeleteCmd)
	accountCmd.PersistentFlags().StringVar(&accPassword, "password", "", "password (read from stdin when omitted)")
}
