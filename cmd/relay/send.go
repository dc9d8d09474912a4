package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/relay/bootstrap"
	"github.com/artpar/relay/domain/dispatch"
)

var sendCmd = &cobra.Command{
	Use:   "send <name-or-url>",
	Short: "Execute a direct request and print the result",
	Long: `Execute a direct request through the full dispatch pipeline.

The argument is either a lookup name configured under
mediator.http.direct.requests, or an absolute URI used verbatim.

Examples:
  relay send health
  relay send https://api.example.com/status
  relay send create-order --method POST --body '{"sku":"A1"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

var (
	sendMethod  string
	sendBody    string
	sendTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendMethod, "method", "m", "", "HTTP method override")
	sendCmd.Flags().StringVarP(&sendBody, "body", "b", "", "JSON request body")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "overall command timeout")
}

func runSend(cmd *cobra.Command, args []string) error {
	engine, err := bootstrap.New(cfgFile)
	if err != nil {
		return err
	}
	defer engine.Close()

	req := dispatch.DirectRequest{Name: args[0], Method: sendMethod}
	if sendBody != "" {
		var body any
		if err := json.Unmarshal([]byte(sendBody), &body); err != nil {
			return fmt.Errorf("parse --body: %w", err)
		}
		req.Body = body
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	result, err := engine.Dispatcher.Send(ctx, req)
	if err != nil {
		return err
	}

	switch v := result.(type) {
	case dispatch.RawResponse:
		fmt.Fprintf(os.Stderr, "status %d\n", v.Status)
		os.Stdout.Write(v.Body)
		fmt.Println()
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
