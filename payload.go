// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

import (
	"bytes"
	"errors"
	"fmt"
)

// payloadBuffer assembles a tagged PLL payload.
type payloadBuffer struct {
	bytes.Buffer
}

func newPayloadBuffer(tag byte, size int) *payloadBuffer {
	b := &payloadBuffer{}
	b.Grow(size)
	b.WriteByte(tag)
	return b
}

func (b *payloadBuffer) putUint32(value uint32) {
	b.WriteByte(byte(value))
	b.WriteByte(byte(value >> 8))
	b.WriteByte(byte(value >> 16))
	b.WriteByte(byte(value >> 24))
}

// readUint32LE expects the caller to have checked the payload length.
func readUint32LE(buf []byte) uint32 {
	return uint32(buf[0]) | (uint32(buf[1]) << 8) | (uint32(buf[2]) << 16) | (uint32(buf[3]) << 24)
}

// payload layouts: one tag byte followed by little endian uint32 fields
const (
	payloadTagFracPll byte = 'F'
	payloadTagPfd     byte = 'P'

	fracPllPayloadSize = 1 + 5*4
	pfdPayloadSize     = 1 + 3*4
)

// FracPllParams programs a fractional PLL (VCO level):
// out = ref * (Mfi + Mfn/Mfd) / Rdiv / Odiv.
type FracPllParams struct {
	Rdiv uint32
	Mfi  uint32
	Mfn  uint32
	Mfd  uint32
	Odiv uint32
}

func (p FracPllParams) Payload() []byte {
	buf := newPayloadBuffer(payloadTagFracPll, fracPllPayloadSize)

	buf.putUint32(p.Rdiv)
	buf.putUint32(p.Mfi)
	buf.putUint32(p.Mfn)
	buf.putUint32(p.Mfd)
	buf.putUint32(p.Odiv)

	return buf.Bytes()
}

// Rate computes the output for reference frequency ref, 0 for invalid params.
func (p FracPllParams) Rate(ref uint32) uint32 {
	if p.Rdiv == 0 || p.Mfd == 0 || p.Odiv == 0 {
		return 0
	}
	num := uint64(ref) * (uint64(p.Mfi)*uint64(p.Mfd) + uint64(p.Mfn))
	return uint32(num / (uint64(p.Mfd) * uint64(p.Rdiv) * uint64(p.Odiv)))
}

func DecodeFracPll(payload []byte) (FracPllParams, error) {
	if len(payload) != fracPllPayloadSize || payload[0] != payloadTagFracPll {
		return FracPllParams{}, errors.New("payload is not a fractional PLL setting")
	}

	return FracPllParams{
		Rdiv: readUint32LE(payload[1:]),
		Mfi:  readUint32LE(payload[5:]),
		Mfn:  readUint32LE(payload[9:]),
		Mfd:  readUint32LE(payload[13:]),
		Odiv: readUint32LE(payload[17:]),
	}, nil
}

// PfdParams programs a phase fractional divider, or with Div2 set the fixed
// divide-by-two stage behind it: out = vco * 4 / (Mfi*4 + Mfn) [/ 2].
type PfdParams struct {
	Mfi  uint32
	Mfn  uint32
	Div2 bool
}

func (p PfdParams) Payload() []byte {
	buf := newPayloadBuffer(payloadTagPfd, pfdPayloadSize)

	buf.putUint32(p.Mfi)
	buf.putUint32(p.Mfn)
	if p.Div2 {
		buf.putUint32(1)
	} else {
		buf.putUint32(0)
	}

	return buf.Bytes()
}

func (p PfdParams) Rate(vco uint32) uint32 {
	den := uint64(p.Mfi)*4 + uint64(p.Mfn)
	if den == 0 {
		return 0
	}
	out := uint64(vco) * 4 / den
	if p.Div2 {
		out /= 2
	}
	return uint32(out)
}

func DecodePfd(payload []byte) (PfdParams, error) {
	if len(payload) != pfdPayloadSize || payload[0] != payloadTagPfd {
		return PfdParams{}, errors.New("payload is not a PFD setting")
	}

	div2 := readUint32LE(payload[9:])
	if div2 > 1 {
		return PfdParams{}, fmt.Errorf("invalid div2 flag %d", div2)
	}

	return PfdParams{
		Mfi:  readUint32LE(payload[1:]),
		Mfn:  readUint32LE(payload[5:]),
		Div2: div2 == 1,
	}, nil
}
