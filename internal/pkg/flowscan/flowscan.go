// Package flowscan scans the payloads of captured traffic for wildcard
// patterns. TCP connections are reassembled and each direction is scanned as
// one continuous byte stream; UDP datagrams are scanned one at a time.
package flowscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/google/gopacket/tcpassembly"
)

// MatcherSource hands out a fresh matcher for each new stream. Both
// *wildcard.Set and *wildcard.Watchlist satisfy it. A nil matcher means there
// is nothing to look for and the stream is skipped.
type MatcherSource interface {
	NewMatcher() *wildcard.SetMatcher
}

// Hit is one pattern occurrence in a flow.
type Hit struct {
	Flow      string    `json:"flow"`
	Protocol  string    `json:"protocol"`
	PatternID string    `json:"pattern_id"`
	Offset    int64     `json:"offset"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarizes a scan.
type Stats struct {
	Packets      int64 `json:"packets"`
	TCPSegments  int64 `json:"tcp_segments"`
	UDPDatagrams int64 `json:"udp_datagrams"`
	Streams      int64 `json:"streams"`
	Gaps         int64 `json:"gaps"`
	BytesScanned int64 `json:"bytes_scanned"`
	Hits         int64 `json:"hits"`
}

// Scanner feeds decoded packets to per-flow matchers. It is not safe for
// concurrent use: packets must be handled from one goroutine, and onHit is
// called synchronously from HandlePacket and Flush.
type Scanner struct {
	src       MatcherSource
	onHit     func(Hit)
	assembler *tcpassembly.Assembler
	udp       *wildcard.SetMatcher
	stats     Stats
}

// NewScanner creates a Scanner reporting occurrences to onHit.
func NewScanner(src MatcherSource, onHit func(Hit)) *Scanner {
	s := &Scanner{
		src:   src,
		onHit: onHit,
	}
	pool := tcpassembly.NewStreamPool(&streamFactory{scanner: s})
	s.assembler = tcpassembly.NewAssembler(pool)
	return s
}

// HandlePacket scans one packet.
func (s *Scanner) HandlePacket(packet gopacket.Packet) {
	s.stats.Packets++

	netLayer := packet.NetworkLayer()
	if netLayer == nil {
		return
	}

	switch transport := packet.TransportLayer().(type) {
	case *layers.TCP:
		s.stats.TCPSegments++
		s.assembler.AssembleWithTimestamp(netLayer.NetworkFlow(), transport, packet.Metadata().Timestamp)
	case *layers.UDP:
		s.stats.UDPDatagrams++
		s.scanDatagram(netLayer.NetworkFlow(), transport, packet.Metadata().Timestamp)
	}
}

func (s *Scanner) scanDatagram(netFlow gopacket.Flow, udp *layers.UDP, ts time.Time) {
	if len(udp.Payload) == 0 {
		return
	}
	if s.udp == nil {
		if s.udp = s.src.NewMatcher(); s.udp == nil {
			return
		}
	}

	flow := flowName(netFlow, udp.TransportFlow())
	s.udp.Reset()
	s.udp.Feed(udp.Payload, func(id string, start int) {
		s.emit(Hit{Flow: flow, Protocol: "udp", PatternID: id, Offset: int64(start), Timestamp: ts})
	})
	s.stats.BytesScanned += int64(len(udp.Payload))
}

// Flush delivers any data still buffered for reassembly and closes every
// open TCP stream.
func (s *Scanner) Flush() {
	s.assembler.FlushAll()
}

// Stats returns the counters accumulated so far.
func (s *Scanner) Stats() Stats {
	return s.stats
}

func (s *Scanner) emit(h Hit) {
	s.stats.Hits++
	if s.onHit != nil {
		s.onHit(h)
	}
}

// ScanFile scans every packet of the pcap file at path.
func ScanFile(ctx context.Context, path string, src MatcherSource, onHit func(Hit)) (Stats, error) {
	// #nosec G304 -- Path is from the command line
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	return ScanReader(ctx, f, src, onHit)
}

// ScanReader scans every packet of a pcap stream. ctx is checked before
// each packet; on cancellation the packets seen so far are flushed and the
// context error is returned.
func ScanReader(ctx context.Context, r io.Reader, src MatcherSource, onHit func(Hit)) (Stats, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read capture header: %w", err)
	}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.DecodeOptions.Lazy = true
	source.DecodeOptions.NoCopy = true

	s := NewScanner(src, onHit)

	for {
		if err := ctx.Err(); err != nil {
			s.Flush()
			return s.Stats(), err
		}

		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			s.Flush()
			logger.DebugContext(ctx, "Capture scan complete",
				"packets", s.stats.Packets,
				"streams", s.stats.Streams,
				"hits", s.stats.Hits)
			return s.Stats(), nil
		}
		if err != nil {
			s.Flush()
			return s.Stats(), fmt.Errorf("failed to read packet %d: %w", s.stats.Packets+1, err)
		}

		s.HandlePacket(packet)
	}
}

func flowName(netFlow, transport gopacket.Flow) string {
	return fmt.Sprintf("%s:%s->%s:%s",
		netFlow.Src(), transport.Src(), netFlow.Dst(), transport.Dst())
}
