package main

import (
	"fmt"

	"github.com/ChallX/gamedex"
)

// statusDescriptions explain each session state to the operator.
var statusDescriptions = map[gamedex.SessionStatus]string{
	gamedex.SessionNotConfigured:    "no credentials configured; scraping proceeds unauthenticated",
	gamedex.SessionNotAuthenticated: "credentials configured, not logged in yet",
	gamedex.SessionAuthenticated:    "logged in",
	gamedex.SessionExpired:          "session expired; next scrape will log in again",
	gamedex.SessionError:            "session is in an error state",
}

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	status := deps.Session.Status(deps.Ctx)
	desc := statusDescriptions[status]
	if desc == "" {
		desc = "unknown"
	}
	fmt.Fprintf(deps.Stdout, "session: %s (%s)\n", status, desc)
	return nil
}
