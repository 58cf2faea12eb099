// Package export turns raw per-conversation export files (HTML thread
// exports and message_N.json exports) into canonical conversation
// records. Each export unit is parsed independently; a bad unit never
// aborts the batch.
package export

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/1acre-in/message-analytics/pkg/convo"
)

// messageFileRe matches the JSON export's message file naming convention.
var messageFileRe = regexp.MustCompile(`^message_\d+\.json$`)

// Format identifies a discovered export unit's raw format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Unit is one discovered export file.
type Unit struct {
	Path   string
	Format Format
}

// Result aggregates one pipeline run.
type Result struct {
	Records  []convo.ConversationRecord
	Units    int
	Empty    int
	Failures int
}

// Pipeline discovers and parses export units under a root directory.
type Pipeline struct {
	log     zerolog.Logger
	workers int
}

// NewPipeline creates a pipeline with the given worker bound; workers <= 0
// means one worker per CPU.
func NewPipeline(log zerolog.Logger, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{log: log, workers: workers}
}

// Discover walks root and returns export units in lexical walk order.
func (p *Pipeline) Discover(root string) ([]Unit, error) {
	var units []Unit
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch base := d.Name(); {
		case strings.HasSuffix(base, ".html"):
			units = append(units, Unit{Path: path, Format: FormatHTML})
		case messageFileRe.MatchString(base):
			units = append(units, Unit{Path: path, Format: FormatJSON})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return units, nil
}

// ParseUnit dispatches to the parser for the unit's format.
func ParseUnit(u Unit) (*convo.ConversationRecord, error) {
	switch u.Format {
	case FormatJSON:
		return ParseJSONFile(u.Path)
	case FormatHTML:
		return ParseHTMLFile(u.Path)
	default:
		return nil, fmt.Errorf("unknown export format %q", u.Format)
	}
}

// Run discovers and parses every unit under root. Units are parsed
// concurrently; a failed unit is logged and excluded, an empty unit is
// counted but produces no record. Output order matches discovery order
// regardless of worker scheduling, so re-ingesting an unchanged tree is
// deterministic.
func (p *Pipeline) Run(ctx context.Context, root string) (Result, error) {
	units, err := p.Discover(root)
	if err != nil {
		return Result{}, err
	}

	res := Result{Units: len(units)}
	if len(units) == 0 {
		p.log.Warn().Str("root", root).Msg("No export units found")
		return res, nil
	}
	p.log.Info().Int("units", len(units)).Str("root", root).Msg("Processing export units")

	type outcome struct {
		record *convo.ConversationRecord
		err    error
	}
	outcomes := make([]outcome, len(units))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := p.workers
	if workers > len(units) {
		workers = len(units)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				record, err := ParseUnit(units[i])
				outcomes[i] = outcome{record: record, err: err}
			}
		}()
	}

feed:
	for i := range units {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	for i, out := range outcomes {
		switch {
		case out.err != nil:
			res.Failures++
			p.log.Warn().Err(out.err).Str("file", units[i].Path).Msg("Failed to parse export unit")
		case out.record == nil:
			res.Empty++
			p.log.Debug().Str("file", units[i].Path).Msg("Export unit yielded no messages")
		default:
			res.Records = append(res.Records, *out.record)
		}
	}

	return res, nil
}
