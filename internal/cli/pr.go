package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
	"github.com/Elpulgo/azdo-prtree/internal/changes"
	"github.com/Elpulgo/azdo-prtree/internal/diff"
	"github.com/Elpulgo/azdo-prtree/internal/filetree"
)

// prOptions are the flags shared by the pr subcommands.
type prOptions struct {
	*globalOptions
	repo string
}

func (a *App) newPRCommand(global *globalOptions) *cobra.Command {
	opts := &prOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Inspect and act on a single pull request",
	}
	cmd.PersistentFlags().StringVarP(&opts.repo, "repo", "r", "", "repository name or ID (required)")
	_ = cmd.MarkPersistentFlagRequired("repo")

	cmd.AddCommand(
		a.newPRTreeCommand(opts),
		a.newPRDiffCommand(opts),
		a.newPRCreateCommand(opts),
		a.newPRVoteCommand(opts, "approve", "Approve a pull request", azdevops.VoteApprove),
		a.newPRVoteCommand(opts, "reject", "Reject a pull request", azdevops.VoteReject),
		a.newPRAbandonCommand(opts),
		a.newPRCommentCommand(opts),
		a.newPRThreadsCommand(opts),
		a.newPRURLCommand(opts),
	)

	return cmd
}

// parsePullRequestID parses a positive pull request number.
func parsePullRequestID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "!"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pull request ID %q", arg)
	}
	return id, nil
}

// prTarget resolves the session, project and pull request ID of a pr subcommand.
func (a *App) prTarget(opts *prOptions, arg string) (*session, string, int, error) {
	id, err := parsePullRequestID(arg)
	if err != nil {
		return nil, "", 0, err
	}

	s, err := a.newSession(opts.globalOptions)
	if err != nil {
		return nil, "", 0, err
	}

	project, err := s.requireProject()
	if err != nil {
		return nil, "", 0, err
	}

	return s, project, id, nil
}

// listThreads fetches review threads for annotations. Failures are logged and
// yield no threads, since comments only decorate the output.
func (s *session) listThreads(cmd *cobra.Command, project, repo string, id int) []azdevops.Thread {
	threads, err := s.client.ListThreads(cmd.Context(), project, repo, id)
	if err != nil {
		s.logger.Warn().Err(err).Int("pull_request", id).Msg("could not load review comments")
		return nil
	}
	return threads
}

func (a *App) newPRTreeCommand(opts *prOptions) *cobra.Command {
	var noComments bool

	cmd := &cobra.Command{
		Use:   "tree <id>",
		Short: "Show the files changed by a pull request as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			result, err := changes.NewAggregator(s.client, s.logger).Aggregate(cmd.Context(), project, opts.repo, id)
			if err != nil {
				return err
			}

			var (
				counts  map[string]int
				general int
			)
			if !noComments {
				threads := s.listThreads(cmd, project, opts.repo, id)
				counts = diff.CountCommentsPerFile(threads)
				general = diff.CountGeneralComments(threads)
			}

			if err := s.render.Tree(filetree.Build(result.Changes), counts); err != nil {
				return err
			}
			if err := s.render.Summary(result); err != nil {
				return err
			}
			return s.render.GeneralComments(general)
		},
	}

	cmd.Flags().BoolVar(&noComments, "no-comments", false, "do not fetch review comment counts")
	return cmd
}

func (a *App) newPRDiffCommand(opts *prOptions) *cobra.Command {
	var (
		path         string
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "diff <id>",
		Short: "Show the diff of one or every file changed by a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			result, err := changes.NewAggregator(s.client, s.logger).Aggregate(cmd.Context(), project, opts.repo, id)
			if err != nil {
				return err
			}

			tree := filetree.Build(result.Changes)

			var records []changes.ChangeRecord
			if path != "" {
				f := filetree.Find(tree, changes.NormalizePath(path))
				if f == nil {
					return fmt.Errorf("%s is not changed in pull request %d", path, id)
				}
				records = append(records, f.Change)
			} else {
				for _, f := range filetree.Files(tree) {
					records = append(records, f.Change)
				}
			}

			threads := s.listThreads(cmd, project, opts.repo, id)
			assembler := diff.NewAssembler(s.client)

			for i, record := range records {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}

				pair := assembler.Assemble(cmd.Context(), project, opts.repo, record)
				if err := pair.Err(); err != nil {
					s.logger.Warn().Err(err).Str("path", record.Path).Msg("content unavailable")
				}

				if err := s.render.Diff(diff.FromPair(pair, record.ChangeType, contextLines), threads); err != nil {
					return err
				}
			}

			if result.Partial() {
				s.logger.Warn().Err(result.Err()).Msg("some commits could not be read; the diff may be incomplete")
				if result.AuthFailed() {
					s.logger.Warn().Msg("authentication failed for some commits; run 'azdo-prtree auth' to store a new PAT")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "only show this file")
	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "lines of context around each change")
	return cmd
}

func (a *App) newPRCreateCommand(opts *prOptions) *cobra.Command {
	var (
		create       azdevops.CreatePullRequestOptions
		autoComplete bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new pull request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newSession(opts.globalOptions)
			if err != nil {
				return err
			}
			project, err := s.requireProject()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if create.TargetBranch == "" {
				if create.TargetBranch, err = s.client.GetDefaultBranch(ctx, project, opts.repo); err != nil {
					return fmt.Errorf("no --target given and %w", err)
				}
			}

			pr, err := s.client.CreatePullRequest(ctx, project, opts.repo, create)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created pull request !%d\n", pr.ID)

			if autoComplete {
				if err := s.client.SetAutoComplete(ctx, project, opts.repo, pr.ID); err != nil {
					return err
				}
				fmt.Fprintln(out, "Auto-complete enabled.")
			}

			fmt.Fprintln(out, s.client.PullRequestWebURL(project, opts.repo, pr.ID))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&create.SourceBranch, "source", "", "source branch (required)")
	f.StringVar(&create.TargetBranch, "target", "", "target branch (default: the repository's default branch)")
	f.StringVar(&create.Title, "title", "", "title (required)")
	f.StringVar(&create.Description, "description", "", "description")
	f.BoolVar(&create.IsDraft, "draft", false, "create as draft")
	f.BoolVar(&autoComplete, "auto-complete", false, "complete automatically once policies pass")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func (a *App) newPRVoteCommand(opts *prOptions, use, short string, vote int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			if err := s.client.VotePullRequest(cmd.Context(), project, opts.repo, id, vote); err != nil {
				return err
			}

			reviewer := azdevops.Reviewer{Vote: vote}
			fmt.Fprintf(cmd.OutOrStdout(), "Voted %q on pull request !%d\n", reviewer.VoteDescription(), id)
			return nil
		},
	}
}

func (a *App) newPRAbandonCommand(opts *prOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <id>",
		Short: "Abandon a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			if err := s.client.AbandonPullRequest(cmd.Context(), project, opts.repo, id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Abandoned pull request !%d\n", id)
			return nil
		},
	}
}

func (a *App) newPRCommentCommand(opts *prOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Start a general comment thread on a pull request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			content := strings.Join(args[1:], " ")
			thread, err := s.client.AddComment(cmd.Context(), project, opts.repo, id, content)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added comment thread #%d to pull request !%d\n", thread.ID, id)
			return nil
		},
	}
}

func (a *App) newPRThreadsCommand(opts *prOptions) *cobra.Command {
	var general bool

	cmd := &cobra.Command{
		Use:   "threads <id>",
		Short: "List the review comment threads of a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			threads, err := s.client.ListThreads(cmd.Context(), project, opts.repo, id)
			if err != nil {
				return err
			}
			if general {
				threads = diff.FilterGeneralThreads(threads)
			}

			return s.render.Threads(threads)
		},
	}

	cmd.Flags().BoolVar(&general, "general", false, "only threads not attached to a file")
	return cmd
}

func (a *App) newPRURLCommand(opts *prOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url <id>",
		Short: "Print the web URL of a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, project, id, err := a.prTarget(opts, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), s.client.PullRequestWebURL(project, opts.repo, id))
			return nil
		},
	}
}
