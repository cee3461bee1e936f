// cmd/tools/discoveryctl/ask.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"product-discovery/internal/bootstrap"
	"product-discovery/internal/common/observability"
	"product-discovery/internal/models"
	handlemessage "product-discovery/internal/workers/discovery/handle-message"
	"product-discovery/pkg/policy"
)

var (
	askMessage string
	askUserID  string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the assistant a question, or start an interactive session",
	Long: `Ask runs the full discovery pipeline in-process. Without a message it reads
one question per line from stdin, keeping conversation memory between lines so
follow-ups such as "cheaper" or "show more" work.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Print example questions",
	RunE:  runSuggest,
}

func init() {
	askCmd.Flags().StringVarP(&askMessage, "message", "m", "", "question to ask")
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "cli", "conversation id; empty disables memory")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the structured reply as JSON")
	rootCmd.AddCommand(askCmd, suggestCmd)
}

// openService builds the same pipeline the server runs.
func openService(ctx context.Context) (*handlemessage.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	p, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load policy: %w", err)
	}

	zapLog, log := newLogger()
	res, err := bootstrap.Open(ctx, cfg, zapLog, log)
	if err != nil {
		return nil, nil, err
	}

	service, err := handlemessage.NewService(handlemessage.ServiceDependencies{
		Policy:        p,
		Completer:     res.Completer,
		Store:         res.Store,
		Memory:        res.Memory,
		Observability: observability.NewNoop(),
		Logger:        log,
	}, handlemessage.ConfigFromApp(cfg, p))
	if err != nil {
		res.Close()
		return nil, nil, err
	}

	closer := func() {
		res.Close()
		_ = zapLog.Sync()
	}
	return service, closer, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	message := askMessage
	if len(args) == 1 {
		message = args[0]
	}

	service, closeService, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeService()

	out := cmd.OutOrStdout()
	if message != "" {
		return printReply(out, service.HandleMessage(ctx, models.Utterance{Text: message, UserID: askUserID}))
	}

	fmt.Fprintln(out, "Ask about products (Ctrl-D to quit).")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := printReply(out, service.HandleMessage(ctx, models.Utterance{Text: line, UserID: askUserID})); err != nil {
			return err
		}
	}
}

func printReply(w io.Writer, reply models.Reply) error {
	if askJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	_, err := fmt.Fprintln(w, reply.Reply)
	return err
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	service, closeService, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeService()

	for _, q := range service.Suggest(ctx) {
		fmt.Fprintln(cmd.OutOrStdout(), q)
	}
	return nil
}
