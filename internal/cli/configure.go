package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elpulgo/azdo-prtree/internal/config"
	"github.com/Elpulgo/azdo-prtree/internal/ui/styles"
)

type configureOptions struct {
	organization string
	apiVersion   string
	userAgent    string
	theme        string
	projects     []string
	concurrency  int
	debug        bool
}

func (a *App) newConfigureCommand(global *globalOptions) *cobra.Command {
	opts := &configureOptions{}

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create or update the config file",
		Example: `  azdo-prtree configure --org https://dev.azure.com/contoso --project web
  azdo-prtree configure --theme nord`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configPath(global)
			if err != nil {
				return err
			}

			cfg, err := config.LoadFrom(path)
			if errors.Is(err, config.ErrConfigNotFound) {
				cfg = config.Default(path)
			} else if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("org") {
				cfg.OrganizationURL = strings.TrimRight(opts.organization, "/")
			}
			if flags.Changed("project") {
				cfg.Project = global.project
			}
			if flags.Changed("api-version") {
				cfg.APIVersion = opts.apiVersion
			}
			if flags.Changed("user-agent") {
				cfg.UserAgent = opts.userAgent
			}
			if flags.Changed("projects") {
				cfg.Projects = opts.projects
			}
			if flags.Changed("overview-concurrency") {
				cfg.OverviewConcurrency = opts.concurrency
			}
			if flags.Changed("debug-logging") {
				cfg.Debug = opts.debug
			}
			if flags.Changed("theme") {
				if _, err := styles.GetThemeByName(opts.theme); err != nil {
					return fmt.Errorf("unknown theme %q, available: %s", opts.theme, strings.Join(styles.ListAvailableThemes(), ", "))
				}
				cfg.Theme = opts.theme
			}

			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", cfg.Path())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.organization, "org", "", "organization URL, e.g. https://dev.azure.com/contoso")
	// --project is inherited from the root command
	f.StringVar(&opts.apiVersion, "api-version", "", "REST api-version to request")
	f.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header to send")
	f.StringVar(&opts.theme, "theme", "", "color theme ("+strings.Join(styles.ListAvailableThemes(), ", ")+")")
	f.StringSliceVar(&opts.projects, "projects", nil, "project IDs shown by 'projects'")
	f.IntVar(&opts.concurrency, "overview-concurrency", config.DefaultOverviewConcurrency, "repositories queried at once by 'prs'")
	f.BoolVar(&opts.debug, "debug-logging", false, "always log at debug level")

	return cmd
}
