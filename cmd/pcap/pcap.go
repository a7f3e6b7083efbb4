// Package pcap implements the pcap command: scan the payloads of a capture
// file for a set of wildcard patterns.
package pcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/endorses/wildscan/internal/pkg/cmdutil"
	"github.com/endorses/wildscan/internal/pkg/filtering"
	"github.com/endorses/wildscan/internal/pkg/flowscan"
	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/signals"
	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewCommand returns the pcap command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pcap FILE",
		Short: "Scan TCP streams and UDP datagrams of a capture file",
		Long: `Scan a pcap file for wildcard patterns. TCP connections are reassembled
and each direction is scanned as one byte stream, so an occurrence split
across segments is still found. UDP datagrams are scanned one at a time.

Each hit is printed as one JSON object. Offsets are relative to the start of
the TCP stream direction or of the UDP payload.`,
		Example: `  wildscan pcap --pattern 'INVITE sip:???@' capture.pcap
  wildscan pcap --patterns-file patterns.yaml capture.pcap`,
		Args: cmdutil.WrapArgs(cobra.ExactArgs(1)),
		RunE: run,
	}

	cmd.Flags().StringSlice("pattern", nil, "pattern to look for (repeatable)")
	cmd.Flags().String("patterns-file", "", "YAML or line-oriented pattern file")
	cmd.Flags().String("wildcard", string(wildcard.DefaultWildcard), "default byte that matches any single byte")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	wc, err := wildcard.ParseWildcard(cmdutil.GetString(cmd.Flags(), "wildcard", "pcap.wildcard"))
	if err != nil {
		return cmdutil.UsageError(err)
	}

	entries, err := loadEntries(cmd, wc)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return cmdutil.UsageError(errors.New("no patterns given (use --pattern or --patterns-file)"))
	}

	watchlist := wildcard.NewWatchlist()
	if err := watchlist.UpdateEntriesSync(entries); err != nil {
		return cmdutil.UsageError(err)
	}

	runID := uuid.New().String()
	log := logger.With("run_id", runID, "file", args[0], "pattern_count", len(entries))

	ctx, cancel := context.WithCancel(cmd.Context())
	cleanup := signals.SetupHandler(ctx, cancel)
	defer cleanup()

	enc := json.NewEncoder(cmd.OutOrStdout())
	var writeErr error
	onHit := func(h flowscan.Hit) {
		if writeErr == nil {
			writeErr = enc.Encode(h)
		}
	}

	logger.InfoContext(ctx, "Capture scan started",
		"run_id", runID,
		"file", args[0],
		"pattern_count", len(entries))

	startTime := time.Now()
	stats, err := flowscan.ScanFile(ctx, args[0], watchlist, onHit)

	log = log.With(
		"packets", stats.Packets,
		"streams", stats.Streams,
		"udp_datagrams", stats.UDPDatagrams,
		"gaps", stats.Gaps,
		"bytes", stats.BytesScanned,
		"hits", stats.Hits,
		"duration", time.Since(startTime))
	switch {
	case errors.Is(err, context.Canceled):
		log.WarnContext(ctx, "Capture scan interrupted")
	case err != nil:
		return cmdutil.InputError(err)
	default:
		log.InfoContext(ctx, "Capture scan complete")
	}

	if writeErr != nil {
		return fmt.Errorf("failed to write output: %w", writeErr)
	}
	return nil
}

// loadEntries merges the --pattern values with the entries of
// --patterns-file. A --pattern value is its own ID; repeated values are
// scanned once.
func loadEntries(cmd *cobra.Command, wc byte) ([]wildcard.Entry, error) {
	var entries []wildcard.Entry

	seen := make(map[string]bool)
	for _, p := range cmdutil.GetStringSlice(cmd.Flags(), "pattern", "pcap.patterns") {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		entries = append(entries, wildcard.Entry{ID: p, Pattern: p, Wildcard: wc})
	}

	if path := cmdutil.GetString(cmd.Flags(), "patterns-file", "pcap.patterns_file"); path != "" {
		fileEntries, err := filtering.LoadEntries(path, wc)
		if err != nil {
			return nil, cmdutil.UsageError(err)
		}
		entries = append(entries, fileEntries...)
	}

	return entries, nil
}
