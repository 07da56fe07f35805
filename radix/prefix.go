// SPDX-License-Identifier: MIT
//
// Copyright (c) 2025 Aaron LI
//
// IP prefix: an address plus a significant bit count, with MRT-style
// reference counting so one prefix can be shared between trees.
//

package radix

import (
	"bytes"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Family is the address family of a prefix.
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

// MaxBits returns the address width of the family in bits.
func (f Family) MaxBits() int {
	switch f {
	case IPv4:
		return 32
	case IPv6:
		return 128
	default:
		return 0
	}
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "(???)"
	}
}

// Prefix is a network prefix: an address in network byte order plus the
// number of leading bits that are significant. Bits beyond the length are
// don't-care for matching.
//
// A prefix with reference count zero is "static": borrowed from the
// caller and never owned. ref() of a static prefix returns a fresh owned
// copy, so a tree never shares storage with its caller.
type Prefix struct {
	family Family
	bitlen int
	refcnt int
	// Address bytes; IPv4 uses the first 4 bytes, the rest stay zero.
	// The fixed width keeps bit probes in range for any tree position.
	addr [16]byte
}

// NewPrefix builds an owned prefix from raw address bytes. The byte count
// must match the family and bitlen must not exceed the family's address
// width. A negative bitlen means the full width.
func NewPrefix(family Family, addr []byte, bitlen int) (*Prefix, error) {
	max := family.MaxBits()
	if max == 0 {
		return nil, fmt.Errorf("unknown address family: %d", int(family))
	}
	if len(addr) != max/8 {
		return nil, fmt.Errorf("%s address must be %d bytes, got %d",
			family, max/8, len(addr))
	}
	if bitlen < 0 {
		bitlen = max
	} else if bitlen > max {
		return nil, fmt.Errorf("prefix length %d exceeds %s maximum %d",
			bitlen, family, max)
	}

	p := &Prefix{
		family: family,
		bitlen: bitlen,
		refcnt: 1,
	}
	copy(p.addr[:], addr)
	return p, nil
}

// ParsePrefix parses the "addr" or "addr/len" text forms. Only numeric
// IPv4/IPv6 addresses are accepted, no name resolution. A missing length
// means the family's full width.
func ParsePrefix(s string) (*Prefix, error) {
	addrStr, lenStr, slash := strings.Cut(s, "/")
	a, err := netip.ParseAddr(addrStr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addrStr, err)
	}

	bitlen := -1
	if slash {
		if lenStr == "" || lenStr[0] < '0' || lenStr[0] > '9' {
			return nil, fmt.Errorf("invalid prefix length %q", lenStr)
		}
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return nil, fmt.Errorf("invalid prefix length %q", lenStr)
		}
		bitlen = n
	}

	family := IPv6
	if a.Is4() {
		family = IPv4
	}
	return NewPrefix(family, a.AsSlice(), bitlen)
}

// Family returns the address family.
func (p *Prefix) Family() Family { return p.family }

// Bitlen returns the number of significant leading bits.
func (p *Prefix) Bitlen() int { return p.bitlen }

// Addr returns a copy of the address bytes (4 for IPv4, 16 for IPv6).
func (p *Prefix) Addr() []byte {
	n := p.family.MaxBits() / 8
	out := make([]byte, n)
	copy(out, p.addr[:n])
	return out
}

// NetworkString returns the bare address in text form.
func (p *Prefix) NetworkString() string {
	if p.family == IPv4 {
		return netip.AddrFrom4([4]byte(p.addr[:4])).String()
	}
	return netip.AddrFrom16(p.addr).String()
}

// String returns the "addr/len" text form.
func (p *Prefix) String() string {
	return p.NetworkString() + "/" + strconv.Itoa(p.bitlen)
}

// ref returns a prefix owned by the caller: the receiver with its count
// bumped, or a fresh copy when the receiver is static.
func (p *Prefix) ref() *Prefix {
	if p == nil {
		return nil
	}
	if p.refcnt == 0 {
		q := *p
		q.refcnt = 1
		return &q
	}
	p.refcnt++
	return p
}

// deref releases one reference. No static prefix may be released here.
func (p *Prefix) deref() {
	if p == nil {
		return
	}
	if p.refcnt <= 0 {
		panic("radix: deref of a static prefix")
	}
	p.refcnt--
}

// bitAt probes bit i of the address, MSB first: bit 0 is the high-order
// bit of byte 0.
func (p *Prefix) bitAt(i int) bool {
	return p.addr[i>>3]&(0x80>>(i&0x07)) != 0
}

// equalMasked reports whether the first n bits of a and b agree: whole
// bytes compared directly, the byte straddling the boundary only under
// the mask keeping its leading n%8 bits.
func equalMasked(a, b *Prefix, n int) bool {
	if !bytes.Equal(a.addr[:n/8], b.addr[:n/8]) {
		return false
	}
	if n%8 == 0 {
		return true
	}
	m := byte(0xFF << (8 - n%8))
	return a.addr[n/8]&m == b.addr[n/8]&m
}
