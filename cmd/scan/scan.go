// Package scan implements the scan command: stream a file or standard input
// through a wildcard matcher.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/endorses/wildscan/internal/pkg/cmdutil"
	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/signals"
	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Match is the JSON form of one occurrence.
type Match struct {
	RunID  string `json:"run_id"`
	Offset int    `json:"offset"`
}

// NewCommand returns the scan command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan PATTERN [FILE]",
		Short: "Stream a file or standard input and report pattern occurrences",
		Long: `Stream FILE, or standard input when FILE is omitted or "-", through a
wildcard matcher and print the offset of each occurrence of PATTERN as soon
as it is seen. Memory use depends on the pattern length only.`,
		Example: `  wildscan scan 'GET /???' access.log
  tail -f app.log | wildscan scan 'user=????' --json
  wildscan scan --max-bytes 10M 'a?c' big.bin`,
		Args: cmdutil.WrapArgs(cobra.RangeArgs(1, 2)),
		RunE: run,
	}

	cmd.Flags().String("wildcard", string(wildcard.DefaultWildcard), "byte that matches any single byte")
	cmd.Flags().Bool("json", false, "print one JSON object per match")
	cmd.Flags().String("max-bytes", "", "stop after this many bytes (e.g. 512K, 10M, 1G)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	wc, err := wildcard.ParseWildcard(cmdutil.GetString(cmd.Flags(), "wildcard", "scan.wildcard"))
	if err != nil {
		return cmdutil.UsageError(err)
	}

	pattern, err := wildcard.Compile(args[0], wc)
	if err != nil {
		return err
	}
	pattern.Warm()

	var r io.Reader = cmd.InOrStdin()
	source := "stdin"
	if len(args) == 2 && args[1] != "-" {
		// #nosec G304 -- Path is from the command line
		f, err := os.Open(args[1])
		if err != nil {
			return cmdutil.InputError(fmt.Errorf("failed to open input: %w", err))
		}
		defer f.Close()
		r = f
		source = args[1]
	}

	if limit := cmdutil.GetString(cmd.Flags(), "max-bytes", "scan.max_bytes"); limit != "" {
		n, err := cmdutil.ParseSizeString(limit)
		if err != nil {
			return cmdutil.UsageError(fmt.Errorf("invalid --max-bytes: %w", err))
		}
		r = io.LimitReader(r, n)
	}

	runID := uuid.New().String()
	log := logger.With("run_id", runID, "source", source, "pattern", pattern.String())

	ctx, cancel := context.WithCancel(cmd.Context())
	cleanup := signals.SetupHandler(ctx, cancel)
	defer cleanup()

	out := cmd.OutOrStdout()
	jsonOut := cmdutil.GetBool(cmd.Flags(), "json", "scan.json")
	enc := json.NewEncoder(out)

	var matches int64
	var writeErr error
	onMatch := func(start int) {
		matches++
		if writeErr != nil {
			return
		}
		if jsonOut {
			writeErr = enc.Encode(Match{RunID: runID, Offset: start})
			return
		}
		_, writeErr = fmt.Fprintln(out, start)
	}

	log.DebugContext(ctx, "Scan started")
	startTime := time.Now()

	scanned, err := pattern.NewMatcher().ScanReader(ctx, &contextReader{ctx: ctx, r: r}, onMatch)

	log = log.With("bytes", scanned, "matches", matches, "duration", time.Since(startTime))
	switch {
	case errors.Is(err, context.Canceled):
		log.WarnContext(ctx, "Scan interrupted")
	case err != nil:
		return cmdutil.InputError(fmt.Errorf("failed to read input: %w", err))
	default:
		log.InfoContext(ctx, "Scan complete")
	}

	if writeErr != nil {
		return fmt.Errorf("failed to write output: %w", writeErr)
	}
	return nil
}

// contextReader returns ctx.Err() as soon as ctx is done, even while a Read
// on the underlying reader is still blocked, such as on a quiet pipe. The
// abandoned Read finishes in the background and its data is dropped.
type contextReader struct {
	ctx context.Context
	r   io.Reader
	buf []byte
}

type readResult struct {
	n   int
	err error
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	if cap(c.buf) < len(p) {
		c.buf = make([]byte, len(p))
	}
	buf := c.buf[:len(p)]

	done := make(chan readResult, 1)
	go func() {
		n, err := c.r.Read(buf)
		done <- readResult{n: n, err: err}
	}()

	select {
	case res := <-done:
		copy(p, buf[:res.n])
		return res.n, res.err
	case <-c.ctx.Done():
		// buf still belongs to the pending Read
		c.buf = nil
		return 0, c.ctx.Err()
	}
}
