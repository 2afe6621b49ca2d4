package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/patentsearch/internal/config"
	"github.com/kailas-cloud/patentsearch/internal/warehouse/sqlite"
)

const seedBatchSize = 500

// maxSeedLine bounds one JSONL record; abstracts can be long.
const maxSeedLine = 4 << 20

var seedCmd = &cobra.Command{
	Use:   "seed [file.jsonl]",
	Short: "Load patents into the local SQLite warehouse",
	Long: `Reads one JSON patent per line (publication_number, title, abstract,
publication_date, assignee, inventors, country_code, kind_code, family_id,
cpc_codes, citations) and upserts them into the SQLite warehouse named by the
config. Use "-" to read stdin. Only the sqlite driver can be seeded.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Warehouse.Driver != config.WarehouseSQLite {
		return fmt.Errorf("seed needs the sqlite warehouse, config uses %q", cfg.Warehouse.Driver)
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		in = f
	}

	store, err := sqlite.NewStore(cfg.Warehouse.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := seed(cmd.Context(), store, in)
	if err != nil {
		return err
	}
	cmd.Printf("seeded %d patents into %s\n", n, store.Path())
	return nil
}

// upserter is the write side of the SQLite warehouse.
type upserter interface {
	Upsert(ctx context.Context, rows []sqlite.PatentRow) error
}

// seed streams JSONL rows into dst in batches and returns the row count.
// Blank lines are skipped; a malformed line aborts with its line number.
func seed(ctx context.Context, dst upserter, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSeedLine)

	batch := make([]sqlite.PatentRow, 0, seedBatchSize)
	total, line := 0, 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch ending at line %d: %w", line, err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var row sqlite.PatentRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, row)
		if len(batch) == seedBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return total, fmt.Errorf("read seed input: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
