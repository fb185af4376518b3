package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"prdtool/internal/app"
	"prdtool/internal/domain"
	llmSvc "prdtool/internal/domain/services/llm"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func newChatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat <prd-id>",
		Short: "Chat about a PRD from the terminal",
		Long: `Streams replies for a PRD the same way the web client does.

Commands:
  /apply <message-id>  append that reply's update suggestion to the PRD
  /snapshot [summary]  save the current content as a version
  /history             list the conversation
  /quit                exit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = cfg.DevUserID
			}
			if userID == "" {
				return errors.New("--user (or DEV_USER_ID) is required")
			}

			backends, err := app.OpenBackends(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, backends, logger)
			if err != nil {
				_ = backends.Close()
				return err
			}
			defer application.Close()

			session := &chatSession{
				app:    application,
				prdID:  args[0],
				userID: userID,
				out:    cmd.OutOrStdout(),
			}
			return session.run(cmd, bufio.NewScanner(cmd.InOrStdin()))
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID that owns the PRD")
	return cmd
}

type chatSession struct {
	app    *app.App
	prdID  string
	userID string
	out    io.Writer
}

func (s *chatSession) run(cmd *cobra.Command, scanner *bufio.Scanner) error {
	ctx := cmd.Context()

	doc, err := s.app.Documents.GetDocument(ctx, s.userID, s.prdID)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%sChatting about %q. /quit to exit.%s\n", colorCyan, doc.Title, colorReset)

	for {
		fmt.Fprintf(s.out, "%s> %s", colorGreen, colorReset)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		command, rest, _ := strings.Cut(line, " ")
		switch command {
		case "/quit", "/exit":
			return nil
		case "/apply":
			result, err := s.app.Chat.ApplyDirective(ctx, s.prdID, s.userID, strings.TrimSpace(rest))
			s.report(err, func() {
				fmt.Fprintf(s.out, "%s (%d tokens)\n", result.Message, result.EstimatedTokens)
			})
		case "/snapshot":
			var summary *string
			if rest = strings.TrimSpace(rest); rest != "" {
				summary = &rest
			}
			version, err := s.app.Versions.Snapshot(ctx, s.prdID, s.userID, summary)
			s.report(err, func() {
				fmt.Fprintf(s.out, "saved v%d\n", version.VersionNumber)
			})
		case "/history":
			turns, err := s.app.Chat.ListMessages(ctx, s.prdID, s.userID)
			s.report(err, func() {
				for _, t := range turns {
					marker := ""
					if t.HasSuggestion() && !t.UpdateApplied {
						marker = colorYellow + " [update]" + colorReset
					}
					fmt.Fprintf(s.out, "%s %-9s%s %s\n", t.ID, t.Role, marker, firstLine(t.Content))
				}
			})
		default:
			result, err := s.app.Chat.SubmitTurn(ctx, &llmSvc.SubmitTurnRequest{
				DocumentID: s.prdID,
				UserID:     s.userID,
				Content:    line,
			}, &writerSink{w: s.out})
			fmt.Fprintln(s.out)
			s.report(err, func() {
				if result.HasUpdate {
					fmt.Fprintf(s.out, "%sUpdate suggested. /apply %s%s\n", colorYellow, result.Message.ID, colorReset)
				}
			})
		}
	}
}

// report prints err, or runs ok when there is none
func (s *chatSession) report(err error, ok func()) {
	switch {
	case err == nil:
		ok()
	case errors.Is(err, domain.ErrCompletion):
		fmt.Fprintf(s.out, "%sFailed to get AI response: %v%s\n", colorRed, err, colorReset)
	default:
		fmt.Fprintf(s.out, "%s%v%s\n", colorRed, err, colorReset)
	}
}

// writerSink prints streamed fragments as they arrive
type writerSink struct {
	w io.Writer
}

func (s *writerSink) Fragment(text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	if len(line) > 80 {
		return line[:77] + "..."
	}
	return line
}
