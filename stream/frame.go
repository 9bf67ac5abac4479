// Package stream publishes the active particle buffer to external renderers
// over WebSocket and maps their control messages onto the simulator.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/flow/mpm"
)

// Frame layout, little-endian:
//
//	header  magic u32 | frame u64 | count u32
//	record  position[3] velocity[3] direction[3] color[3] density mass, all f32
const (
	FrameMagic  uint32 = 0x3147504d // "MPG1"
	HeaderSize         = 16
	RecordSize         = 14 * 4
	floatFields        = 14
)

// ErrFrame is returned for buffers that are not a valid frame.
var ErrFrame = errors.New("malformed frame")

// EncodeFrame appends the frame header and one record per particle to dst.
func EncodeFrame(dst []byte, frame uint64, ps []mpm.Particle) []byte {
	need := HeaderSize + RecordSize*len(ps)
	if cap(dst)-len(dst) < need {
		grown := make([]byte, len(dst), len(dst)+need)
		copy(grown, dst)
		dst = grown
	}

	dst = binary.LittleEndian.AppendUint32(dst, FrameMagic)
	dst = binary.LittleEndian.AppendUint64(dst, frame)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(ps)))

	var rec [floatFields]float32
	for i := range ps {
		p := &ps[i]
		copy(rec[0:3], p.Position[:])
		copy(rec[3:6], p.Velocity[:])
		copy(rec[6:9], p.Direction[:])
		copy(rec[9:12], p.Color[:])
		rec[12] = p.Density
		rec[13] = p.Mass
		for _, f := range rec {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
		}
	}
	return dst
}

// DecodeFrame parses a buffer produced by EncodeFrame. Only the published
// fields are filled in; Affine is always zero.
func DecodeFrame(buf []byte, dst []mpm.Particle) (uint64, []mpm.Particle, error) {
	if len(buf) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrFrame, len(buf), HeaderSize)
	}
	if m := binary.LittleEndian.Uint32(buf[0:4]); m != FrameMagic {
		return 0, nil, fmt.Errorf("%w: magic %#x", ErrFrame, m)
	}
	frame := binary.LittleEndian.Uint64(buf[4:12])
	count := int(binary.LittleEndian.Uint32(buf[12:16]))
	if len(buf) != HeaderSize+count*RecordSize {
		return 0, nil, fmt.Errorf("%w: %d bytes for %d records", ErrFrame, len(buf), count)
	}

	dst = dst[:0]
	var rec [floatFields]float32
	off := HeaderSize
	for i := 0; i < count; i++ {
		for f := range rec {
			rec[f] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
		}
		var p mpm.Particle
		copy(p.Position[:], rec[0:3])
		copy(p.Velocity[:], rec[3:6])
		copy(p.Direction[:], rec[6:9])
		copy(p.Color[:], rec[9:12])
		p.Density = rec[12]
		p.Mass = rec[13]
		dst = append(dst, p)
	}
	return frame, dst, nil
}
