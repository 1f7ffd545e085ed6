package infrastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// oggPageHeaderSize is the fixed portion of an ogg page header, up to and
// including the segment count byte.
const oggPageHeaderSize = 27

var oggCapturePattern = [4]byte{'O', 'g', 'g', 'S'}

// oggPacketReader extracts logical packets from an ogg container stream.
// Packets spanning multiple pages are reassembled.
type oggPacketReader struct {
	r       *bufio.Reader
	pending [][]byte // complete packets from the last page, in order
	partial []byte   // packet continued onto the next page
}

func newOggPacketReader(r io.Reader) *oggPacketReader {
	return &oggPacketReader{r: bufio.NewReader(r)}
}

// NextPacket returns the next logical packet, or io.EOF at end of stream.
func (o *oggPacketReader) NextPacket() ([]byte, error) {
	for len(o.pending) == 0 {
		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
	packet := o.pending[0]
	o.pending = o.pending[1:]
	return packet, nil
}

// readPage consumes one ogg page, appending completed packets to pending.
func (o *oggPacketReader) readPage() error {
	header := make([]byte, oggPageHeaderSize)
	if _, err := io.ReadFull(o.r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	if [4]byte(header[:4]) != oggCapturePattern {
		return fmt.Errorf("bad ogg capture pattern %q", header[:4])
	}
	if header[4] != 0 {
		return fmt.Errorf("unsupported ogg version %d", header[4])
	}

	segmentCount := int(header[26])
	lacing := make([]byte, segmentCount)
	if _, err := io.ReadFull(o.r, lacing); err != nil {
		return err
	}

	// A lacing value of 255 means the segment continues into the next one
	// (or onto the next page).
	for _, l := range lacing {
		segment := make([]byte, int(l))
		if _, err := io.ReadFull(o.r, segment); err != nil {
			return err
		}
		o.partial = append(o.partial, segment...)
		if l < 255 {
			o.pending = append(o.pending, o.partial)
			o.partial = nil
		}
	}
	return nil
}
