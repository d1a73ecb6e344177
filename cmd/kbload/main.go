// kbload is a bulk loader and query tool for an askdocs server.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs/pkg/sdk"
)

var (
	serverURL string
	apiKey    string
)

var rootCmd = &cobra.Command{
	Use:   "kbload",
	Short: "Load documents into an askdocs knowledge base",
	Long:  `Upload documents, inspect indexing status, and ask questions against a running askdocs server.`,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload one or more documents for indexing",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge-base files",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [file-id]",
	Short: "Delete a file and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

// uploadWait makes upload block until each file leaves the pending state.
var uploadWait bool

// askChatID continues an existing chat.
var askChatID string

// askTopK overrides the server-side routing depth.
var askTopK int

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "askdocs server URL (default $ASKDOCS_SERVER or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (default $ASKDOCS_API_KEY)")

	uploadCmd.Flags().BoolVar(&uploadWait, "wait", false, "Wait for indexing to finish")
	askCmd.Flags().StringVar(&askChatID, "chat", "", "Continue an existing chat")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "Routing depth (0 = server default)")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *sdk.Client {
	url := serverURL
	if url == "" {
		url = os.Getenv("ASKDOCS_SERVER")
	}
	if url == "" {
		url = "http://localhost:8080"
	}

	key := apiKey
	if key == "" {
		key = os.Getenv("ASKDOCS_API_KEY")
	}

	var opts []sdk.Option
	if key != "" {
		opts = append(opts, sdk.WithAPIKey(key))
	}
	return sdk.New(url, opts...)
}

func runUpload(cmd *cobra.Command, args []string) error {
	client := newClient()
	ctx := context.Background()

	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}

		file, err := client.Upload(ctx, path, data)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("%s: uploaded as file %d (%s)\n", path, file.ID, file.Status)

		if uploadWait {
			file, err = waitForIndexing(ctx, client, file.ID)
			if err != nil {
				cmd.PrintErrf("%s: %v\n", path, err)
				failed++
				continue
			}
			if file.Status == "error" {
				cmd.PrintErrf("%s: indexing failed: %s\n", path, file.Error)
				failed++
				continue
			}
			cmd.Printf("%s: indexed, %d chunks\n", path, file.ChunkCount)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

// waitForIndexing polls the file until its status settles.
func waitForIndexing(ctx context.Context, client *sdk.Client, id int64) (sdk.File, error) {
	for {
		select {
		case <-ctx.Done():
			return sdk.File{}, ctx.Err()
		case <-time.After(2 * time.Second):
		}

		file, err := client.GetFile(ctx, id)
		if err != nil {
			return sdk.File{}, fmt.Errorf("poll file %d: %w", id, err)
		}
		if file.Status != "pending" {
			return file, nil
		}
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	list, err := newClient().ListFiles(context.Background())
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	if list.Total == 0 {
		cmd.Println("No files in the knowledge base.")
		return nil
	}

	for _, f := range list.Items {
		cmd.Printf("  %d  %-40s %-8s %d chunks\n", f.ID, f.Name, f.Status, f.ChunkCount)
		if f.Error != "" {
			cmd.Printf("     error: %s\n", f.Error)
		}
	}
	cmd.Printf("Total: %d files\n", list.Total)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("file id must be an integer: %q", args[0])
	}

	if err := newClient().DeleteFile(context.Background(), id); err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	cmd.Printf("Deleted file %d\n", id)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	result, err := newClient().Ask(context.Background(), askChatID, question, askTopK)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	cmd.Println(result.Answer.Answer)
	if result.Answer.ClarifyingQuestion != "" {
		cmd.Printf("\nClarifying question: %s\n", result.Answer.ClarifyingQuestion)
	}
	if len(result.Answer.Sources) > 0 {
		cmd.Printf("\nSources: %s\n", strings.Join(result.Answer.Sources, ", "))
	}
	cmd.Printf("\n[%s] chat %s", result.Answer.Status, result.ChatID)
	if result.Answer.RoutingDetail.TopFile != "" {
		cmd.Printf(", routed to %s (%.2f)", result.Answer.RoutingDetail.TopFile, result.Answer.RoutingDetail.TopScore)
	}
	cmd.Println()
	return nil
}
