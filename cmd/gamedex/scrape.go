package main

import (
	"encoding/json"
	"fmt"

	"github.com/ChallX/gamedex"
	"github.com/google/uuid"
)

// Run executes the scrape command: one full pipeline run with progress
// printed to stderr and the resulting record printed to stdout as JSON.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	correlationID := uuid.NewString()

	events, cancel := deps.Broker.Subscribe(correlationID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			switch event.Status {
			case gamedex.ProgressError:
				fmt.Fprintf(deps.Stderr, "error: %s\n", event.Message)
				if event.Hint != "" {
					fmt.Fprintf(deps.Stderr, "hint: %s\n", event.Hint)
				}
				return
			case gamedex.ProgressCompleted:
				fmt.Fprintf(deps.Stderr, "[%3d%%] %s\n", event.Percent, event.Message)
				return
			default:
				fmt.Fprintf(deps.Stderr, "[%3d%%] %s\n", event.Percent, event.Message)
			}
		}
	}()

	record, err := deps.Pipeline.Run(deps.Ctx, c.URL, correlationID)
	cancel()
	<-done

	if err != nil {
		if record == nil {
			return err
		}
		// Persistence failed but the extraction survived; print it anyway.
		fmt.Fprintf(deps.Stderr, "warning: %s\n", gamedex.ErrorMessage(err))
	}

	out, merr := json.MarshalIndent(record, "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return err
}
