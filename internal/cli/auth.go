package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/config"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/ui"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	loginNoSave        bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Long: `Exchange a username and password for an access token and save it as
api.token in the active config file (or the global one when none exists).

Examples:
  ziris login
  ziris login --username admin --password-stdin < password.txt
  ziris login --no-save --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		username, password, err := readCredentials(cmd.InOrStdin())
		if err != nil {
			return err
		}

		tokens, err := a.client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		result := map[string]any{"username": username}
		// Tokens that are not JWTs still work; they just carry no claims.
		if claims, err := api.ParseClaims(tokens.AccessToken); err == nil {
			result["role"] = claims.Role
			if !claims.ExpiresAt.IsZero() {
				result["expires_at"] = claims.ExpiresAt
			}
		}
		if !loginNoSave {
			path := a.savePath()
			if err := saveToken(path, tokens.AccessToken); err != nil {
				return err
			}
			result["saved_to"] = path
		} else {
			result["access_token"] = tokens.AccessToken
		}

		return output(cmd.OutOrStdout(), result, func(w io.Writer) {
			ui.PrintSuccess(w, "Logged in as %s", username)
			if path, ok := result["saved_to"]; ok {
				fmt.Fprintln(w, ui.MutedStyle.Render(fmt.Sprintf("  token saved to %s", path)))
			} else {
				fmt.Fprintln(w, tokens.AccessToken)
			}
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		// The server only revokes refresh tokens held by this process; the
		// stored access token is dropped regardless.
		if err := a.client.Logout(cmd.Context()); err != nil {
			ui.PrintWarning(cmd.ErrOrStderr(), "server logout failed: %s", errors.Message(err))
		}
		path := a.savePath()
		if err := saveToken(path, ""); err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), map[string]string{"config": path}, func(w io.Writer) {
			ui.PrintSuccess(w, "Logged out")
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		if err := a.requireToken(); err != nil {
			return err
		}
		user, err := a.client.Me(cmd.Context())
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), user, func(w io.Writer) {
			fmt.Fprintf(w, "%s (%s)\n", user.Username, user.Role)
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (prompted when omitted on a terminal)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.Flags().BoolVar(&loginNoSave, "no-save", false, "print the token instead of saving it")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

// readCredentials takes the password from stdin when --password-stdin is
// set, otherwise prompts on the terminal.
func readCredentials(stdin io.Reader) (string, string, error) {
	if loginPasswordStdin {
		if loginUsername == "" {
			return "", "", errors.New(errors.ErrConfig,
				"--password-stdin needs --username",
				"Pass --username alongside --password-stdin")
		}
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", "", errors.WrapWithCode(err, errors.ErrConfig, "Failed to read password from stdin", "")
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", "", errors.New(errors.ErrConfig, "No password on stdin", "Pipe the password in, e.g. 'echo $PW | ziris login -u admin --password-stdin'")
		}
		return loginUsername, password, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", "", errors.New(errors.ErrConfig,
			"Cannot prompt for credentials without a terminal",
			"Use --username with --password-stdin")
	}

	username := loginUsername
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Use --username with --password-stdin to log in non-interactively")
	}
	return strings.TrimSpace(username), password, nil
}

func saveToken(path, token string) error {
	if path == "" {
		return errors.New(errors.ErrPersist, "No config location to save the token",
			"Run 'ziris config init' first or pass --config")
	}
	if err := config.SetValue(path, "api.token", token); err != nil {
		return errors.WrapWithCode(err, errors.ErrPersist,
			"Failed to save the access token", "Check permissions on "+path)
	}
	return nil
}
