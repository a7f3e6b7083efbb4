package flowscan

import (
	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"github.com/google/gopacket"
	"github.com/google/gopacket/tcpassembly"
)

// streamFactory creates one tcpStream per connection direction
// (implements tcpassembly.StreamFactory).
type streamFactory struct {
	scanner *Scanner
}

func (f *streamFactory) New(netFlow, transport gopacket.Flow) tcpassembly.Stream {
	f.scanner.stats.Streams++
	return &tcpStream{
		scanner: f.scanner,
		flow:    flowName(netFlow, transport),
		matcher: f.scanner.src.NewMatcher(),
	}
}

// tcpStream scans one direction of a TCP connection. Offsets count the
// bytes delivered on the stream; bytes lost in a gap are not counted.
type tcpStream struct {
	scanner *Scanner
	flow    string
	matcher *wildcard.SetMatcher

	// consumed is the number of bytes delivered so far; base is the value
	// of consumed when the matcher was last reset.
	consumed int64
	base     int64
}

func (t *tcpStream) Reassembled(reassemblies []tcpassembly.Reassembly) {
	if t.matcher == nil {
		return
	}

	for _, r := range reassemblies {
		if r.Skip != 0 {
			// Continuity is lost, a partial occurrence must not be
			// completed across the hole.
			if t.consumed > 0 {
				t.scanner.stats.Gaps++
				logger.Debug("Reassembly gap, resetting matcher",
					"flow", t.flow,
					"skipped", r.Skip,
					"offset", t.consumed)
			}
			t.matcher.Reset()
			t.base = t.consumed
		}

		seen := r.Seen
		t.matcher.Feed(r.Bytes, func(id string, start int) {
			t.scanner.emit(Hit{
				Flow:      t.flow,
				Protocol:  "tcp",
				PatternID: id,
				Offset:    t.base + int64(start),
				Timestamp: seen,
			})
		})
		t.consumed += int64(len(r.Bytes))
		t.scanner.stats.BytesScanned += int64(len(r.Bytes))
	}
}

func (t *tcpStream) ReassemblyComplete() {}
