package main

import (
	"fmt"

	"github.com/ChallX/gamedex"
)

// Run executes the records command.
func (c *RecordsCmd) Run(deps *Dependencies) error {
	filter := gamedex.RecordFilter{Limit: c.Limit, Offset: c.Offset}
	if c.SourceURL != "" {
		filter.SourceURL = &c.SourceURL
	}

	records, err := deps.Records.FindRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", gamedex.ErrorMessage(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No records found. Use 'gamedex scrape' to create one.")
		return nil
	}

	for _, r := range records {
		version := r.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(deps.Stdout, "#%d  %s  %s  %s  %s GiB  %d links\n",
			r.Number, r.Name, version, r.Developer, r.TotalGiB, len(r.Links))
	}

	return nil
}
