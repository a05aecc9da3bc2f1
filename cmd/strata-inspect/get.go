package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func getCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "get [store]",
		Short: "Print store snapshots as JSON",
		Long: `Fetch the current state of all stores, or of one store by name,
from a running inspection server and print it as indented JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initConfig()

			url := "http://" + resolveAddr(addr) + "/stores"
			if len(args) == 1 {
				url += "/" + args[0]
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", url, err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
			}

			var out bytes.Buffer
			if err := json.Indent(&out, body, "", "  "); err != nil {
				return fmt.Errorf("formatting response: %w", err)
			}
			fmt.Println(out.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Inspection server address (env: STRATA_ADDR)")

	return cmd
}
