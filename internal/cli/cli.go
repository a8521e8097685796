// Package cli implements the azdo-prtree command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
	"github.com/Elpulgo/azdo-prtree/internal/config"
	"github.com/Elpulgo/azdo-prtree/internal/logging"
	"github.com/Elpulgo/azdo-prtree/internal/ui/patinput"
	"github.com/Elpulgo/azdo-prtree/internal/ui/render"
	"github.com/Elpulgo/azdo-prtree/internal/ui/styles"
	"github.com/Elpulgo/azdo-prtree/internal/version"
)

// PromptFunc asks the user for a PAT.
type PromptFunc func(in io.Reader, out io.Writer, intro string, st *styles.Styles) (string, error)

// UpdateCheckFunc reports whether a newer release than current exists.
type UpdateCheckFunc func(ctx context.Context, current string) (*version.UpdateInfo, error)

// App holds the dependencies of the commands. Nil fields fall back to the
// process streams, the system keyring and the interactive prompt.
type App struct {
	In    io.Reader
	Out   io.Writer
	Err   io.Writer
	Build version.Info

	Credentials   config.CredentialProvider
	Prompt        PromptFunc
	CheckUpdate   UpdateCheckFunc
	ClientOptions []azdevops.Option
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	project    string
	debug      bool
}

// Execute runs the command line in args, which excludes the program name.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.defaults()

	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	return hint(root.ExecuteContext(ctx))
}

// hint appends advice to errors the user can fix.
func hint(err error) error {
	if azdevops.IsNotFound(err) {
		return fmt.Errorf("%w\nHint: Check the --project and --repo values", err)
	}
	return err
}

func (a *App) defaults() {
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if a.Credentials == nil {
		a.Credentials = config.NewKeyringStore()
	}
	if a.Prompt == nil {
		a.Prompt = patinput.Prompt
	}
	if a.CheckUpdate == nil {
		a.CheckUpdate = func(ctx context.Context, current string) (*version.UpdateInfo, error) {
			return version.NewChecker(current).CheckForUpdate(ctx)
		}
	}
}

func (a *App) newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "azdo-prtree",
		Short: "Browse Azure DevOps pull requests as a file tree",
		Long: `azdo-prtree lists the files a pull request changes as a tree and shows
their diffs, combining the changes of every commit in the pull request.

PAT storage: system keyring (service: azdo-prtree), falling back to AZDO_PAT.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/azdo-prtree/config.yaml)")
	flags.StringVarP(&opts.project, "project", "p", "", "project name, overrides the configured project")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.newAuthCommand(),
		a.newConfigureCommand(opts),
		a.newProjectsCommand(opts),
		a.newReposCommand(opts),
		a.newBranchesCommand(opts),
		a.newPRsCommand(opts),
		a.newPRCommand(opts),
		a.newVersionCommand(),
	)

	return root
}

// session is the per-command state built from config and credentials.
type session struct {
	cfg     *config.Config
	client  *azdevops.Client
	logger  zerolog.Logger
	render  *render.Renderer
	project string
}

func (a *App) configPath(opts *globalOptions) (string, error) {
	if opts.configPath != "" {
		return opts.configPath, nil
	}
	return config.GetPath()
}

func (a *App) newSession(opts *globalOptions) (*session, error) {
	path, err := a.configPath(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(a.Err, cfg.Debug || opts.debug)

	pat, source, err := a.lookupPAT()
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, fmt.Errorf("no PAT configured\nHint: Run 'azdo-prtree auth' or set %s", config.PATEnvVar)
		}
		return nil, fmt.Errorf("failed to get PAT: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = azdevops.DefaultUserAgent(a.Build.Version)
	}

	clientOpts := append([]azdevops.Option{
		azdevops.WithAPIVersion(cfg.APIVersion),
		azdevops.WithUserAgent(userAgent),
		azdevops.WithLogger(logger),
	}, a.ClientOptions...)

	client, err := azdevops.NewClient(cfg.OrganizationURL, pat, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure DevOps client: %w", err)
	}

	project := opts.project
	if project == "" {
		project = cfg.Project
	}

	logger.Debug().
		Str("organization", cfg.OrganizationURL).
		Str("project", project).
		Str("api_version", cfg.APIVersion).
		Stringer("pat_source", source).
		Msg("session ready")

	return &session{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		render:  render.New(a.Out, styles.ForTheme(cfg.GetTheme())),
		project: project,
	}, nil
}

// lookupPAT also reports the PAT's origin when the provider can tell.
func (a *App) lookupPAT() (string, config.PATSource, error) {
	if l, ok := a.Credentials.(interface {
		Lookup() (string, config.PATSource, error)
	}); ok {
		return l.Lookup()
	}
	pat, err := a.Credentials.GetPAT()
	return pat, config.SourceNone, err
}

func (s *session) requireProject() (string, error) {
	if s.project == "" {
		return "", errors.New("no project selected\nHint: Pass --project or set 'project' in the config file")
	}
	return s.project, nil
}
