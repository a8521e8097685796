package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
)

func (a *App) newProjectsCommand(global *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects of the organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newSession(global)
			if err != nil {
				return err
			}

			projects, err := s.client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if !all {
				projects = azdevops.FilterProjects(projects, s.cfg.Projects)
			}

			return s.render.Projects(projects)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "ignore the 'projects' filter from the config file")
	return cmd
}

func (a *App) newReposCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List the Git repositories of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newSession(global)
			if err != nil {
				return err
			}
			project, err := s.requireProject()
			if err != nil {
				return err
			}

			repos, err := s.client.ListRepositories(cmd.Context(), project)
			if err != nil {
				return err
			}
			return s.render.Repositories(repos)
		},
	}
}

func (a *App) newBranchesCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "branches <repository>",
		Short: "List the branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(global)
			if err != nil {
				return err
			}
			project, err := s.requireProject()
			if err != nil {
				return err
			}

			repo := args[0]
			branches, err := s.client.ListBranches(cmd.Context(), project, repo)
			if err != nil {
				return err
			}

			// a missing default branch only loses the marker
			defaultBranch, err := s.client.GetDefaultBranch(cmd.Context(), project, repo)
			if err != nil {
				s.logger.Warn().Err(err).Str("repository", repo).Msg("could not resolve default branch")
			}

			return s.render.Branches(branches, defaultBranch)
		},
	}
}

func (a *App) newPRsCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prs",
		Short: "List active pull requests across every repository of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newSession(global)
			if err != nil {
				return err
			}
			project, err := s.requireProject()
			if err != nil {
				return err
			}

			groups, err := s.client.ListRepositoryPullRequests(cmd.Context(), project, s.cfg.OverviewConcurrency)
			if err != nil {
				return err
			}
			return s.render.PullRequests(groups)
		},
	}
}

func (a *App) newVersionCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.Build.String())

			if !check {
				return nil
			}

			info, err := a.CheckUpdate(cmd.Context(), a.Build.Version)
			if err != nil {
				return err
			}
			if info.UpdateAvailable {
				fmt.Fprintf(out, "A newer version is available: %s\n%s\n", info.LatestVersion, info.ReleaseURL)
			} else {
				fmt.Fprintln(out, "You are running the latest version.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
