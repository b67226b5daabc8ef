package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Raxcore-dev/rax-ai-sdk/rax"
)

var (
	chatModel       string
	chatStream      bool
	chatSystem      string
	chatMaxTokens   int
	chatTemperature float64
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a chat completion request",
	Long: `Send a prompt to the configured model and print the reply.
The prompt is read from the arguments, or from stdin when omitted.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model ID (overrides config)")
	chatCmd.Flags().BoolVarP(&chatStream, "stream", "s", false, "stream tokens as they arrive")
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system prompt")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "cap the completion length")
	chatCmd.Flags().Float64VarP(&chatTemperature, "temperature", "t", -1, "sampling temperature")
	_ = chatCmd.MarkFlagRequired("model")
}

func runChat(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(args)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	req := rax.ChatRequest{Model: chatModel}
	if chatSystem != "" {
		req.Messages = append(req.Messages, rax.System(chatSystem))
	}
	req.Messages = append(req.Messages, rax.User(prompt))
	if chatMaxTokens > 0 {
		req.MaxTokens = &chatMaxTokens
	}
	if chatTemperature >= 0 {
		req.Temperature = &chatTemperature
	}

	ctx := cmd.Context()
	if chatStream {
		stream, err := client.ChatStream(ctx, req)
		if err != nil {
			return err
		}
		defer stream.Close()
		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if chunk.Done {
				break
			}
			fmt.Print(chunk.Content)
		}
		fmt.Println()
		return nil
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(resp.FirstText())
	return nil
}

func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}
	return prompt, nil
}
