package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/rehab360/internal/chat"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/remote"
	"github.com/terraincognita07/rehab360/internal/services"
	"github.com/terraincognita07/rehab360/internal/store"
)

const (
	chatQuitCommand  = "/quit"
	chatClearCommand = "/clear"
)

func newChatCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to Ally, interactively or with a single message",
		Long: `Without arguments chat reads one message per line until EOF or /quit.
/clear starts the conversation over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				session, err := requireSession(journal)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				conversation := chat.NewConversation(chat.Options{
					Opener:  rt.streamingClient(),
					Token:   session.Token,
					Timeout: rt.cfg.Client.ChatTimeout,
					OnDelta: func(delta string) { fmt.Fprint(out, delta) },
					Logger:  rt.logger,
				})
				stats := services.BuildUserStats(journal.Snapshot(), time.Now())

				if len(args) > 0 {
					return sendChatMessage(cmd.Context(), conversation, strings.Join(args, " "), stats, out)
				}
				return runChatLoop(cmd.Context(), conversation, stats, rt.streams.In, out)
			})
		},
	}
}

func runChatLoop(ctx context.Context, conversation *chat.Conversation, stats *models.UserStats, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, RenderChatMessage(conversation.Messages()[0]))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case chatQuitCommand:
			return nil
		case chatClearCommand:
			conversation.ClearHistory()
			fmt.Fprintln(out, RenderChatMessage(conversation.Messages()[0]))
			continue
		}

		if err := sendChatMessage(ctx, conversation, line, stats, out); err != nil && ctx.Err() != nil {
			return err
		}
	}
}

// sendChatMessage prints the reply as it streams. A failed reply is shown as
// the apology the conversation keeps in its history.
func sendChatMessage(ctx context.Context, conversation *chat.Conversation, content string, stats *models.UserStats, out io.Writer) error {
	fmt.Fprint(out, titleStyle.Render("Ally: "))
	err := conversation.Send(ctx, content, stats)
	if err != nil {
		messages := conversation.Messages()
		fmt.Fprint(out, errorStyle.Render(messages[len(messages)-1].Content))
	}
	fmt.Fprintln(out)
	return err
}
