package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"groupme-analyzer/backend/internal/adapter"
	"groupme-analyzer/backend/internal/analysis"
	"groupme-analyzer/backend/internal/constants"
	"groupme-analyzer/backend/internal/discord"
	"groupme-analyzer/backend/internal/graph"
	"groupme-analyzer/backend/internal/groupme"
	"groupme-analyzer/backend/internal/report"
	"groupme-analyzer/backend/internal/state"
	"groupme-analyzer/backend/pkg/config"
	apperrors "groupme-analyzer/backend/pkg/errors"
	"groupme-analyzer/backend/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	token   string
	groupID string
	outPath string
	source  string
	detail  bool
	graph   bool
	recap   bool
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if apperrors.IsInput(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "analyze [token]",
		Short: "Analyze a GroupMe chat",
		Long: "Pulls a group's full message history and reports, per member, messages sent,\n" +
			"likes given and received, self-likes and words sent. The table is also written as CSV.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.token = args[0]
			}
			return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.groupID, "group", "g", "", "ID of the group to analyze (skips the interactive selection)")
	flags.StringVarP(&opts.outPath, "out", "o", "", "Path of the CSV file to write (default from OUTPUT_PATH or users.csv)")
	flags.StringVar(&opts.source, "source", "", "Message source: groupme or discord (default from SOURCE)")
	flags.BoolVar(&opts.detail, "detail", false, "Print per-member like share and like-sharing rates")
	flags.BoolVar(&opts.graph, "graph", false, "Store the analysis in Neo4j (requires NEO4J_URI)")
	flags.BoolVar(&opts.recap, "recap", false, "Print an LLM-written recap (requires LITELLM_URL)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress details to stderr")

	return cmd
}

func run(ctx context.Context, in io.Reader, out io.Writer, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}
	// Optional outputs are checked before fetching: a failed run writes no CSV
	if opts.graph && !cfg.GraphEnabled() {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if opts.recap && !cfg.RecapEnabled() {
		return apperrors.NewConfigMissingRequired("LITELLM_URL")
	}

	if err := logger.Init(cfg.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if !opts.verbose {
		logger.SetLevel(zapcore.WarnLevel)
	}
	log := logger.Get()

	reader := bufio.NewReader(in)

	source, err := newSource(cfg, opts.token, in, reader, out, log)
	if err != nil {
		return err
	}
	svc := analysis.NewService(source, cfg.PageSize, log)

	group, err := chooseGroup(ctx, svc, reader, out, opts.groupID)
	if err != nil || group == nil {
		return err
	}

	fmt.Fprintf(out, "Analyzing %d messages from %s\n", group.MessageCount, group.Name)

	progress := report.NewProgress(out)
	result, err := svc.Analyze(ctx, *group, progress.Update)
	progress.Done()
	if err != nil {
		return err
	}

	report.PrintSummary(out, result, opts.detail)

	if err := report.SaveCSV(cfg.OutputPath, result); err != nil {
		return err
	}
	log.Info("Statistics written", zap.String("path", cfg.OutputPath))

	if opts.graph {
		repo, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return err
		}
		defer repo.Close()

		analysisID := uuid.NewString()
		if err := repo.SaveAnalysis(ctx, analysisID, *group, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "Stored analysis %s\n", analysisID)
	}

	if opts.recap {
		llm := adapter.NewLLMAdapter(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID)
		recap, err := llm.Recap(ctx, group.Name, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", recap)
	}

	return nil
}

// chooseGroup returns nil without error when the account has no groups
func chooseGroup(ctx context.Context, svc *analysis.Service, reader *bufio.Reader, out io.Writer, groupID string) (*state.Group, error) {
	if groupID != "" {
		return svc.FindGroup(ctx, groupID)
	}

	groups, err := svc.Groups(ctx)
	if err != nil {
		return nil, err
	}
	report.PrintGroups(out, groups)
	if len(groups) == 0 {
		return nil, nil
	}

	fmt.Fprint(out, "Enter the number of the group you would like to analyze: ")
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}
	return selectGroup(groups, line)
}

func applyOverrides(cfg *config.Config, opts *options) {
	if opts.outPath != "" {
		cfg.OutputPath = opts.outPath
	}
	if opts.source != "" {
		cfg.Source = opts.source
	}
}

func newSource(cfg *config.Config, token string, in io.Reader, reader *bufio.Reader, out io.Writer, log *zap.Logger) (analysis.Source, error) {
	switch cfg.Source {
	case constants.SourceDiscord:
		if token == "" {
			token = cfg.DiscordBotToken
		}
		if token == "" {
			return nil, apperrors.NewConfigMissingRequired("DISCORD_BOT_TOKEN")
		}
		session, err := discordgo.New("Bot " + token)
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		return discord.NewSource(session, cfg.DiscordGuildID, cfg.DiscordMessageLimit, log), nil
	default:
		if token == "" {
			token = cfg.GroupMeToken
		}
		if token == "" {
			fmt.Fprintf(out, "If you have not done so already, go to the following website to receive your API token: %s. "+
				"When signing up, it does not matter what you put for the callback URL. "+
				"Alternately, click \"Access Token\" to use your account for authentication.\n", constants.TokenHelpURL)
			var err error
			token, err = promptHidden(in, reader, out, "Enter your developer access token (hidden): ")
			if err != nil {
				return nil, err
			}
		}
		if token == "" {
			return nil, apperrors.NewInvalidInput("", "an access token is required")
		}
		return groupme.NewClient(cfg.GroupMeAPIURL, token, cfg.HTTPTimeout), nil
	}
}
