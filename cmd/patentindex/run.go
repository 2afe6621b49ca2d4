package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/bootstrap"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	indexinguc "github.com/kailas-cloud/patentsearch/internal/usecase/indexing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Index warehouse patents into the vector index",
	Long: `Pages through warehouse patents matching the filters, embeds them and
upserts them into the vector index. The run stops at --max-records or when
the warehouse has no more rows. Per-record failures are counted, not fatal.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

// runFlags are the job overrides accepted by run.
type runFlags struct {
	batchSize       int
	maxRecords      int
	dateFrom        string
	dateTo          string
	countries       []string
	assignees       []string
	classifications []string
	json            bool
}

var runOpts runFlags

func init() {
	f := runCmd.Flags()
	f.IntVar(&runOpts.batchSize, "batch-size", 0, "records per warehouse page (default from config)")
	f.IntVar(&runOpts.maxRecords, "max-records", 0, "stop after this many records (default from config)")
	f.StringVar(&runOpts.dateFrom, "date-from", "", "earliest publication date, YYYY-MM-DD")
	f.StringVar(&runOpts.dateTo, "date-to", "", "latest publication date, YYYY-MM-DD")
	f.StringSliceVar(&runOpts.countries, "country", nil, "country code filter (repeatable)")
	f.StringSliceVar(&runOpts.assignees, "assignee", nil, "assignee filter (repeatable)")
	f.StringSliceVar(&runOpts.classifications, "classification", nil, "CPC prefix filter (repeatable)")
	f.BoolVar(&runOpts.json, "json", false, "print the final summary as JSON")

	rootCmd.AddCommand(runCmd)
}

// job builds the indexing job from flags. Zero sizes take config defaults.
func (o *runFlags) job() indexinguc.Job {
	j := indexinguc.Job{
		BatchSize:  o.batchSize,
		MaxRecords: o.maxRecords,
		Filters: filter.Filters{
			CountryCodes:    o.countries,
			Assignees:       o.assignees,
			Classifications: o.classifications,
		},
	}
	if o.dateFrom != "" || o.dateTo != "" {
		j.Filters.DateRange = &filter.DateRange{Start: o.dateFrom, End: o.dateTo}
	}
	return j
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	wh, err := bootstrap.OpenWarehouse(ctx, e.cfg.Warehouse)
	if err != nil {
		return err
	}
	defer func() { _ = wh.Close() }()

	if err := e.vec.CreateIndex(ctx); err != nil {
		return err
	}

	svc := indexinguc.New(bootstrap.Lexical(wh, &e.cfg), e.vec, indexinguc.Options{
		BatchSize:  e.cfg.Indexing.BatchSize,
		MaxRecords: e.cfg.Indexing.MaxRecords,
	}, e.logger)
	defer svc.Close()

	sum, err := svc.Run(ctx, runOpts.job(), func(p indexinguc.Progress) {
		e.logger.Info("batch indexed",
			zap.Int("batch", p.Batches),
			zap.Int("indexed", p.Summary.Indexed),
			zap.Int("errors", p.Summary.Errors),
		)
	})

	if runOpts.json {
		out, mErr := json.MarshalIndent(sum, "", "  ")
		if mErr != nil {
			return mErr
		}
		cmd.Println(string(out))
	} else {
		cmd.Printf("indexed: %d\nskipped: %d\nerrors:  %d\n", sum.Indexed, sum.Skipped, sum.Errors)
		for _, f := range sum.Failures {
			cmd.Printf("  %s: %s\n", f.ID, f.Error)
		}
	}

	if err != nil {
		return fmt.Errorf("indexing stopped: %w", err)
	}
	return nil
}
