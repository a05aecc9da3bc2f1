package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/strata-ui/strata/pkg/inspect"
)

func watchCmd() *cobra.Command {
	var (
		addr  string
		store string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail store change events",
		Long: `Connect to a running inspection server and print every store write
as it happens. Use --store to filter to a single store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			initConfig()

			wsURL := "ws://" + resolveAddr(addr) + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", wsURL, err)
			}
			defer conn.Close()

			fmt.Fprintf(os.Stderr, "watching %s\n", wsURL)

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)

			events := make(chan inspect.ChangeEvent)
			errs := make(chan error, 1)
			go func() {
				for {
					var ev inspect.ChangeEvent
					if err := conn.ReadJSON(&ev); err != nil {
						errs <- err
						return
					}
					events <- ev
				}
			}()

			for {
				select {
				case ev := <-events:
					if store != "" && ev.Store != store {
						continue
					}
					printEvent(ev)

				case err := <-errs:
					return fmt.Errorf("stream closed: %w", err)

				case <-interrupt:
					// Best-effort close handshake before exiting.
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Inspection server address (env: STRATA_ADDR)")
	cmd.Flags().StringVar(&store, "store", "", "Only show events for this store")

	return cmd
}

func printEvent(ev inspect.ChangeEvent) {
	keys := "-"
	if len(ev.Keys) > 0 {
		keys = strings.Join(ev.Keys, ",")
	}
	fmt.Printf("%s  %-20s  keys=%-30s  subscribers=%d\n",
		ev.At.Format(time.RFC3339Nano), ev.Store, keys, ev.Subscribers)
}
