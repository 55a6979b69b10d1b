package farmctl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/client"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the agronomist about a parcel",
		Long: `Chat sends a question to the agronomist. With --id the stored analysis is
sent along as context. Without a question farmctl reads questions from stdin,
one per line, and keeps the conversation history until EOF.

Examples:
  farmctl chat --id 4f1c2d9e-... "What should I plant next spring?"
  farmctl chat --id 4f1c2d9e-...`,
		Args: cobra.ArbitraryArgs,
		RunE: runChatCmd,
	}
	cmd.Flags().String("id", "", "stored analysis to use as context")
	return cmd
}

func runChatCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	api := apiClient(cmd)
	store := client.NewStore()
	var chatCtx any
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		resp, err := api.Analysis(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load analysis %s: %w", id, err)
		}
		store.SetAnalysis(client.MapBackendToAnalysis(resp, resp.AreaAcres, id))
		chatCtx = store.Analysis()
	}

	out := cmd.OutOrStdout()
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		return ask(ctx, api, store, chatCtx, q, out)
	}
	return chatLoop(ctx, api, store, chatCtx, cmd.InOrStdin(), out)
}

// chatLoop asks one question per input line. Failed turns are reported and skipped.
func chatLoop(ctx context.Context, api *client.Client, store *client.Store, chatCtx any, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for sc.Scan() {
		q := strings.TrimSpace(sc.Text())
		if q != "" {
			if err := ask(ctx, api, store, chatCtx, q, out); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)
	return sc.Err()
}

func ask(ctx context.Context, api *client.Client, store *client.Store, chatCtx any, q string, out io.Writer) error {
	reply, err := api.Chat(ctx, q, store.ChatHistory(), chatCtx)
	if err != nil {
		return err
	}
	store.AppendChat(
		entities.ChatMessage{Role: "user", Content: q},
		entities.ChatMessage{Role: "assistant", Content: reply},
	)
	fmt.Fprintln(out, reply)
	return nil
}
