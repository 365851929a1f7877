// cmd/assistant-cli/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/pipeline"
	"raphael-assistant/internal/pipeline/classifier"
	"raphael-assistant/internal/pipeline/dispatcher"
	"raphael-assistant/internal/pipeline/expression"
	"raphael-assistant/internal/pipeline/extractor"
	"raphael-assistant/internal/services/calendar"
	"raphael-assistant/internal/services/genai"
	"raphael-assistant/internal/services/storage"
	"raphael-assistant/pkg/registry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assistant-cli",
		Short:         "Run assistant turns offline against an in-memory store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newAskCmd(), newClassifyCmd(), newCalcCmd(), newActivitiesCmd())
	return root
}

func newAskCmd() *cobra.Command {
	var (
		userID   string
		reply    string
		block    bool
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Process one message, or read messages from stdin line by line",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewStructured(logLevel, "console", "stderr")
			repo := storage.NewRepository(storage.NewMemoryStore(), nil)

			dcfg := dispatcher.DefaultConfig()
			dcfg.BlockOnMissingFields = block
			disp := dispatcher.New(repo, calendar.Unavailable{Reason: "offline"}, dcfg, log)

			var gen genai.Generator = genai.Unavailable{Reason: "offline"}
			if reply != "" {
				gen = genai.Static{Text: reply}
			}
			p := pipeline.New(classifier.New(), disp, gen, log)
			svc := pipeline.NewService(p, repo, pipeline.DefaultServiceConfig(), log)

			if len(args) > 0 {
				return ask(cmd, svc, userID, strings.Join(args, " "))
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := ask(cmd, svc, userID, line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli_user", "user id the turns are stored under")
	cmd.Flags().StringVar(&reply, "reply", "", "fixed generated reply; empty means the generator is unavailable")
	cmd.Flags().BoolVar(&block, "block-on-missing", false, "ask for missing fields instead of using placeholders")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")
	return cmd
}

func ask(cmd *cobra.Command, svc *pipeline.Service, userID, message string) error {
	result, err := svc.Chat(context.Background(), userID, message)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", result.Intent, result.ResponseText)
	return nil
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Print the intent and extracted entities for a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			result := classifier.New().Classify(message)
			out := map[string]interface{}{
				"intent":     result.Intent,
				"confidence": result.Confidence,
				"entities":   extractor.Extract(message, result.Intent),
			}
			if result.MatchedPattern != nil {
				out["matchedPattern"] = *result.MatchedPattern
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc <expression>",
		Short: "Evaluate an arithmetic expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := expression.Calculate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newActivitiesCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List the workflow activities this build can serve",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.Default()
			if path != "" {
				reg, err = registry.LoadRegistry(path)
			}
			if err != nil {
				return err
			}
			for _, a := range reg.Activities {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.TaskType, a.Version, a.DisplayName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "registry file to read instead of the built-in one")
	return cmd
}
