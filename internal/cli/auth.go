package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elpulgo/azdo-prtree/internal/ui/patinput"
	"github.com/Elpulgo/azdo-prtree/internal/ui/styles"
)

func (a *App) newAuthCommand() *cobra.Command {
	var fromStdin, remove bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Set or update your Personal Access Token (PAT)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if remove {
				if err := a.Credentials.DeletePAT(); err != nil {
					return err
				}
				fmt.Fprintln(out, "PAT removed from system keyring.")
				return nil
			}

			var pat string
			if fromStdin {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					pat = strings.TrimSpace(scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read PAT: %w", err)
				}
				if pat == "" {
					return errors.New("no PAT given on standard input")
				}
			} else {
				intro := "No PAT found in keyring. Please enter your Personal Access Token:"
				if _, err := a.Credentials.GetPAT(); err == nil {
					intro = "This will replace your existing Personal Access Token in the system keyring."
				}

				var err error
				pat, err = a.Prompt(cmd.InOrStdin(), out, intro, styles.DefaultStyles())
				if errors.Is(err, patinput.ErrCancelled) {
					fmt.Fprintln(out, "Cancelled, PAT unchanged.")
					return nil
				}
				if err != nil {
					return err
				}
			}

			if err := a.Credentials.SetPAT(pat); err != nil {
				return fmt.Errorf("failed to set PAT: %w", err)
			}

			fmt.Fprintln(out, "PAT saved successfully to system keyring.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the PAT from standard input instead of prompting")
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the stored PAT")
	cmd.MarkFlagsMutuallyExclusive("stdin", "remove")

	return cmd
}
