package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/ChallX/gamedex"
	gamedexhttp "github.com/ChallX/gamedex/http"
	"github.com/ChallX/gamedex/pipeline"
	"github.com/ChallX/gamedex/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	DB       *sqlite.DB
	Records  gamedex.RecordService
	Session  gamedex.SessionManager
	Pipeline *pipeline.Pipeline
	Broker   *pipeline.Broker
	Server   *gamedexhttp.Server
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API server"`
	Scrape  ScrapeCmd  `cmd:"" help:"Scrape a single thread URL and print the record"`
	Records RecordsCmd `cmd:"" help:"List persisted game records"`
	Status  StatusCmd  `cmd:"" help:"Show the forum session status"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8080" help:"Listen address"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URL string `arg:"" help:"Thread URL to scrape"`
}

// RecordsCmd is the "records" subcommand.
type RecordsCmd struct {
	SourceURL string `help:"Filter by source URL"`
	Limit     int    `default:"50" help:"Maximum records to list"`
	Offset    int    `help:"Records to skip"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}
