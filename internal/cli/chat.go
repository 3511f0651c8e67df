package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/dialogue"
	"github.com/ashureev/collabmatch/internal/identity"
	"github.com/ashureev/collabmatch/internal/match"
	"github.com/ashureev/collabmatch/internal/reply"
)

const (
	cliUserID = "cli"
	quitWord  = "quit"
)

// Chatter answers one message for one conversation key.
type Chatter interface {
	HandleMessage(ctx context.Context, sessionID, utterance string) string
}

func promptLine(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

func (a *app) chatCmd() *cobra.Command {
	var noGenerator bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the matching bot in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var opts []dialogue.Option
			if !noGenerator {
				gen, err := reply.New(cmd.Context(), a.cfg.Reply)
				switch {
				case errors.Is(err, reply.ErrDisabled):
				case err != nil:
					a.log.Warn("reply generator unavailable", zap.Error(err))
				default:
					opts = append(opts, dialogue.WithGenerator(gen))
				}
			}

			orch := dialogue.NewOrchestrator(match.NewEngine(s), dialogue.NewSessionStore(), a.log.Named("dialogue"), opts...)
			key := identity.ConversationKey(cliUserID, identity.NewSessionID())
			return runChat(cmd.Context(), orch, key, a.readLine, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&noGenerator, "no-generator", false, "Never call the reply generator for free-form messages")
	return cmd
}

// runChat feeds lines from read into chat until the user quits or input ends.
func runChat(ctx context.Context, chat Chatter, key string, read LineReader, out io.Writer) error {
	fmt.Fprintf(out, "bot: %s\n", dialogue.ReplyWelcome)
	fmt.Fprintf(out, "(type '%s' to leave)\n", quitWord)

	for {
		line, err := read("you")
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, quitWord) || strings.EqualFold(line, "exit") {
			return nil
		}

		fmt.Fprintf(out, "bot: %s\n", chat.HandleMessage(ctx, key, line))
		if err := ctx.Err(); err != nil {
			return nil
		}
	}
}
