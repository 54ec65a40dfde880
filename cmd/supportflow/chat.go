package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/supportflow-dev/supportflow/internal/engine"
	"github.com/supportflow-dev/supportflow/internal/ticket"
	"github.com/supportflow-dev/supportflow/pkg/config"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the triage bot on the terminal",
	Long: `Starts an interactive REPL against an in-memory session store. Useful
for trying out the troubleshooting flow without running the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runChat(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(ctx context.Context, cfg *config.Config) error {
	// Terminal sessions are throwaway; keep everything in memory and keep
	// the log out of the conversation.
	store := session.NewMemoryStore(cfg.SessionTTL.Std())
	defer store.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(store, engine.Config{
		HandoffGrace: cfg.HandoffGrace.Std(),
		Ticket: ticket.Options{
			ProjectKey:    cfg.Ticket.ProjectKey,
			IssueType:     cfg.Ticket.IssueType,
			DefaultLabels: cfg.Ticket.DefaultLabels,
			LabelMap:      cfg.Ticket.LabelMap,
		},
	}, log)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("SupportFlow triage bot. Type your issue; /reset starts over, /quit exits.")

	sessionID := ""
	for {
		input, err := line.Prompt("you> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println("bye")
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "/quit", "/exit":
			fmt.Println("bye")
			return nil
		case "/reset":
			sessionID = ""
			fmt.Println("(new session)")
			continue
		}
		line.AppendHistory(input)

		turnCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		resp, err := eng.Handle(turnCtx, sessionID, input)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		sessionID = resp.SessionID

		fmt.Printf("bot> %s\n", resp.Reply)
		if resp.Handoff && resp.Ticket != nil {
			payload, err := json.MarshalIndent(resp.Ticket, "", "  ")
			if err == nil {
				fmt.Printf("--- ticket preview ---\n%s\n", payload)
			}
		}
	}
}
