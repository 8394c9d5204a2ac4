package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var rpcURL string

// rpcCmd sends a single method call to a running swapd server and prints
// the response.
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [json-params]",
	Short: "Call an RPC method on a running server",
	Long: `Send one JSON-RPC call to a running swapd server.

Examples:
  swapd rpc server_info
  swapd rpc pool_info
  swapd rpc fund '{"account":"alice","asset":"XRP","amount":1000000}'
  swapd rpc deposit '{"account":"alice","amount_a":1000,"amount_b":1000}'
  swapd rpc swap '{"account":"alice","side":"A","amount_in":100,"min_amount_out":90}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.Flags().StringVar(&rpcURL, "url", "http://127.0.0.1:7244/", "server RPC endpoint")
}

func runRPC(cmd *cobra.Command, args []string) error {
	method := args[0]

	params := json.RawMessage(`{}`)
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params must be a JSON object, got %q", args[1])
		}
		params = json.RawMessage(args[1])
	}

	payload, err := json.Marshal(map[string]interface{}{
		"method": method,
		"params": []json.RawMessage{params},
	})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(rpcURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Re-indent for the terminal.
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
