package flowscan

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"
	"time"

	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clientIP   = "10.0.0.1"
	serverIP   = "10.0.0.2"
	clientPort = 40000
	serverPort = 7000
)

// capture builds an in-memory pcap file.
type capture struct {
	t   *testing.T
	buf bytes.Buffer
	w   *pcapgo.Writer
	ts  time.Time
}

func newCapture(t *testing.T) *capture {
	c := &capture{t: t, ts: time.Unix(1700000000, 0)}
	c.w = pcapgo.NewWriter(&c.buf)
	require.NoError(t, c.w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	return c
}

func (c *capture) write(layerList ...gopacket.SerializableLayer) {
	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	require.NoError(c.t, gopacket.SerializeLayers(buffer, opts, layerList...))

	data := buffer.Bytes()
	c.ts = c.ts.Add(time.Millisecond)
	require.NoError(c.t, c.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     c.ts,
		CaptureLength: len(data),
		Length:        len(data),
	}, data))
}

func ipv4(src, dst string, proto layers.IPProtocol) (*layers.Ethernet, *layers.IPv4) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x66},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	return eth, ip
}

// tcp writes one segment. flags may contain S, A, P and F.
func (c *capture) tcp(src, dst string, srcPort, dstPort uint16, seq uint32, flags string, payload string) {
	eth, ip := ipv4(src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		Window:  5840,
	}
	for _, f := range flags {
		switch f {
		case 'S':
			tcp.SYN = true
		case 'A':
			tcp.ACK = true
		case 'P':
			tcp.PSH = true
		case 'F':
			tcp.FIN = true
		}
	}
	require.NoError(c.t, tcp.SetNetworkLayerForChecksum(ip))

	if payload == "" {
		c.write(eth, ip, tcp)
		return
	}
	c.write(eth, ip, tcp, gopacket.Payload(payload))
}

func (c *capture) udp(src, dst string, srcPort, dstPort uint16, payload string) {
	eth, ip := ipv4(src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	require.NoError(c.t, udp.SetNetworkLayerForChecksum(ip))
	c.write(eth, ip, udp, gopacket.Payload(payload))
}

// handshake opens a connection; the returned sequence numbers are those of
// the first data byte in each direction.
func (c *capture) handshake() (clientSeq, serverSeq uint32) {
	c.tcp(clientIP, serverIP, clientPort, serverPort, 1000, "S", "")
	c.tcp(serverIP, clientIP, serverPort, clientPort, 5000, "SA", "")
	c.tcp(clientIP, serverIP, clientPort, serverPort, 1001, "A", "")
	return 1001, 5001
}

func compileSet(t *testing.T, entries ...wildcard.Entry) *wildcard.Set {
	set, err := wildcard.CompileSet(entries)
	require.NoError(t, err)
	return set
}

func scan(t *testing.T, c *capture, src MatcherSource) ([]Hit, Stats) {
	var hits []Hit
	stats, err := ScanReader(context.Background(), bytes.NewReader(c.buf.Bytes()), src, func(h Hit) {
		hits = append(hits, h)
	})
	require.NoError(t, err)
	return hits, stats
}

func TestScanReader_MatchAcrossSegments(t *testing.T) {
	c := newCapture(t)
	seq, _ := c.handshake()
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq, "PA", "INVITE sip:b")
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq+12, "PA", "ob@example.com SIP/2.0")

	set := compileSet(t, wildcard.Entry{ID: "invite", Pattern: "sip:???@", Wildcard: '?'})
	hits, stats := scan(t, c, set)

	require.Len(t, hits, 1)
	assert.Equal(t, "invite", hits[0].PatternID)
	assert.Equal(t, "tcp", hits[0].Protocol)
	assert.Equal(t, int64(7), hits[0].Offset)
	assert.Equal(t, "10.0.0.1:40000->10.0.0.2:7000", hits[0].Flow)
	assert.False(t, hits[0].Timestamp.IsZero())

	assert.Equal(t, int64(5), stats.Packets)
	assert.Equal(t, int64(5), stats.TCPSegments)
	assert.Equal(t, int64(len("INVITE sip:bob@example.com SIP/2.0")), stats.BytesScanned)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestScanReader_OutOfOrderSegments(t *testing.T) {
	c := newCapture(t)
	seq, _ := c.handshake()
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq+3, "PA", "def")
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq, "PA", "abc")

	set := compileSet(t, wildcard.Entry{ID: "x", Pattern: "c?e", Wildcard: '?'})
	hits, stats := scan(t, c, set)

	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].Offset)
	assert.Zero(t, stats.Gaps)
}

func TestScanReader_GapResetsMatcher(t *testing.T) {
	c := newCapture(t)
	seq, _ := c.handshake()
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq, "PA", "hello a")
	// 100 bytes never captured
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq+107, "PA", "bc abc")

	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "a?c", Wildcard: '?'})
	hits, stats := scan(t, c, set)

	// "a" + "bc" across the hole must not match; the later "abc" does, at
	// its offset among delivered bytes
	require.Len(t, hits, 1)
	assert.Equal(t, int64(len("hello a")+3), hits[0].Offset)
	assert.Equal(t, int64(1), stats.Gaps)
}

func TestScanReader_DirectionsAreSeparate(t *testing.T) {
	c := newCapture(t)
	clientSeq, serverSeq := c.handshake()
	c.tcp(clientIP, serverIP, clientPort, serverPort, clientSeq, "PA", "ab")
	c.tcp(serverIP, clientIP, serverPort, clientPort, serverSeq, "PA", "c")
	c.tcp(serverIP, clientIP, serverPort, clientPort, serverSeq+1, "PA", "xabc")

	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "abc", Wildcard: '?'})
	hits, stats := scan(t, c, set)

	require.Len(t, hits, 1)
	assert.Equal(t, "10.0.0.2:7000->10.0.0.1:40000", hits[0].Flow)
	assert.Equal(t, int64(2), hits[0].Offset)
	assert.Equal(t, int64(2), stats.Streams)
}

func TestScanReader_UDPDatagrams(t *testing.T) {
	c := newCapture(t)
	c.udp(clientIP, serverIP, 7001, 7002, "REGISTER sip:alice@example.com")
	c.udp(clientIP, serverIP, 7001, 7002, "REGISTER sip:bob@example.com")

	set := compileSet(t,
		wildcard.Entry{ID: "bob", Pattern: "sip:???@", Wildcard: '?'},
		wildcard.Entry{ID: "register", Pattern: "REGISTER", Wildcard: '?'},
	)
	hits, stats := scan(t, c, set)

	require.Len(t, hits, 3)
	assert.Equal(t, "register", hits[0].PatternID)
	assert.Equal(t, "register", hits[1].PatternID)
	assert.Equal(t, "bob", hits[2].PatternID)
	assert.Equal(t, int64(9), hits[2].Offset)
	assert.Equal(t, "udp", hits[2].Protocol)
	assert.Equal(t, int64(2), stats.UDPDatagrams)
}

func TestScanReader_DatagramsDoNotJoin(t *testing.T) {
	c := newCapture(t)
	c.udp(clientIP, serverIP, 7001, 7002, "ab")
	c.udp(clientIP, serverIP, 7001, 7002, "c")

	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "abc", Wildcard: '?'})
	hits, _ := scan(t, c, set)
	assert.Empty(t, hits)
}

func TestScanReader_WatchlistSource(t *testing.T) {
	c := newCapture(t)
	c.udp(clientIP, serverIP, 7001, 7002, "needle")

	w := wildcard.NewWatchlist()
	hits, _ := scan(t, c, w)
	assert.Empty(t, hits, "empty watchlist scans nothing")

	require.NoError(t, w.UpdateEntriesSync([]wildcard.Entry{{ID: "n", Pattern: "ne?dle", Wildcard: '?'}}))
	hits, _ = scan(t, c, w)
	assert.Len(t, hits, 1)
}

func TestScanReader_Cancelled(t *testing.T) {
	c := newCapture(t)
	c.udp(clientIP, serverIP, 7001, 7002, "abc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "abc", Wildcard: '?'})
	_, err := ScanReader(ctx, bytes.NewReader(c.buf.Bytes()), set, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelAtEnd cancels its context as soon as the last byte has been read.
type cancelAtEnd struct {
	r      *bytes.Reader
	cancel context.CancelFunc
}

func (c *cancelAtEnd) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if c.r.Len() == 0 {
		c.cancel()
	}
	return n, err
}

func TestScanReader_CancelledFlushesBufferedSegments(t *testing.T) {
	c := newCapture(t)
	seq, _ := c.handshake()
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq, "PA", "xy")
	// out of order after a hole; held by the assembler until flushed
	c.tcp(clientIP, serverIP, clientPort, serverPort, seq+10, "PA", "abc")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := iotest.OneByteReader(&cancelAtEnd{r: bytes.NewReader(c.buf.Bytes()), cancel: cancel})

	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "a?c", Wildcard: '?'})
	var hits []Hit
	stats, err := ScanReader(ctx, r, set, func(h Hit) {
		hits = append(hits, h)
	})
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].Offset)
	assert.Equal(t, int64(len(hits)), stats.Hits)
	assert.Equal(t, int64(len("xy")+len("abc")), stats.BytesScanned)
	assert.Equal(t, int64(1), stats.Gaps)
}

func TestScanReader_NotACapture(t *testing.T) {
	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "abc", Wildcard: '?'})
	_, err := ScanReader(context.Background(), bytes.NewReader([]byte("definitely not pcap")), set, nil)
	assert.Error(t, err)
}

func TestScanFile(t *testing.T) {
	c := newCapture(t)
	c.udp(clientIP, serverIP, 7001, 7002, "xx abc yy")

	path := filepath.Join(t.TempDir(), "capture.pcap")
	require.NoError(t, os.WriteFile(path, c.buf.Bytes(), 0600))

	set := compileSet(t, wildcard.Entry{ID: "abc", Pattern: "a?c", Wildcard: '?'})
	var hits []Hit
	stats, err := ScanFile(context.Background(), path, set, func(h Hit) { hits = append(hits, h) })
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(3), hits[0].Offset)

	_, err = ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing.pcap"), set, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
