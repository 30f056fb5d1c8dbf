package main

import (
	"context"
	"fmt"
	"time"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Run executes the serve command. It blocks until the context is
// canceled, then shuts the server down gracefully.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if err := deps.Server.Open(); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "gamedex serving on %s\n", c.Addr)

	<-deps.Ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return deps.Server.Close(ctx)
}
