// Package ipv6 provides the 128-bit IPv6 address value used by the target
// sources: parsing, formatting, exact increment, masking and prefix
// containment.
package ipv6

import (
	"errors"
	"fmt"
	"math/big"
	"net/netip"
	"strconv"
	"strings"
)

// Sentinel errors
var (
	ErrInvalidAddress = errors.New("ipv6: invalid address")
	ErrInvalidPrefix  = errors.New("ipv6: invalid prefix")
)

// Address is a 128-bit unsigned big-endian integer, byte 0 most significant.
// It is a plain value: copies never share storage.
type Address [16]byte

// Parse converts a textual IPv6 literal into an Address. IPv4 literals and
// zoned addresses are rejected.
func Parse(s string) (Address, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if !ip.Is6() || ip.Zone() != "" {
		return Address{}, fmt.Errorf("%w: %q is not a plain IPv6 address", ErrInvalidAddress, s)
	}
	return Address(ip.As16()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Addr returns the address as a netip.Addr.
func (a Address) Addr() netip.Addr { return netip.AddrFrom16(a) }

// String returns the compressed textual representation.
func (a Address) String() string { return a.Addr().String() }

// Expanded returns the fully expanded 8 * 16-bit hex block representation.
func (a Address) Expanded() string {
	parts := make([]string, 8)
	for i := 0; i < 8; i++ {
		parts[i] = fmt.Sprintf("%04x", int(a[2*i])<<8|int(a[2*i+1]))
	}
	return strings.Join(parts, ":")
}

// MarshalText implements encoding.TextMarshaler so addresses render as
// literals in JSON and YAML output.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// BigInt returns a new big.Int holding the unsigned 128-bit value.
func (a Address) BigInt() *big.Int { return new(big.Int).SetBytes(a[:]) }

// Compare performs numeric comparison: -1 if a<b, 0 if equal, 1 if a>b.
func (a Address) Compare(b Address) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// Next returns a+1. The carry ripples from byte 15 toward byte 0 and stops at
// the first byte that absorbs it. Incrementing the all-ones address wraps to
// :: and reports overflow.
func (a Address) Next() (next Address, overflow bool) {
	next = a
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			return next, false
		}
	}
	return next, true
}

// Mask returns the address with every bit past the first bits cleared.
// It panics if bits is outside [0,128].
func (a Address) Mask(bits int) Address {
	if bits < 0 || bits > 128 {
		panic(fmt.Sprintf("ipv6: mask length %d out of range", bits))
	}
	m := netmask(bits)
	for i := range a {
		a[i] &= m[i]
	}
	return a
}

// netmask builds the 16-byte network mask for bits. The byte at bits/8 keeps
// its top bits%8 bits; every byte after it is zero.
func netmask(bits int) Address {
	var m Address
	for i := 0; i < bits/8; i++ {
		m[i] = 0xff
	}
	if bits < 128 {
		m[bits/8] = ^(byte(0xff) >> (bits % 8))
	}
	return m
}

// Prefix is a base address plus the number of leading bits that stay fixed.
// The base is kept exactly as given; it is not truncated to the network
// address.
type Prefix struct {
	base Address
	bits int
}

// NewPrefix constructs a Prefix from a base address and prefix length.
func NewPrefix(base Address, bits int) (Prefix, error) {
	if bits < 0 || bits > 128 {
		return Prefix{}, fmt.Errorf("%w: length %d outside [0,128]", ErrInvalidPrefix, bits)
	}
	return Prefix{base: base, bits: bits}, nil
}

// ParsePrefix parses "<ipv6-literal>/<decimal-length>". The string must split
// into exactly two tokens, carry no whitespace, and the length must be in
// [0,128].
func ParsePrefix(s string) (Prefix, error) {
	addrPart, lenPart, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(lenPart, "/") {
		return Prefix{}, fmt.Errorf("%w: %q is not <address>/<length>", ErrInvalidPrefix, s)
	}
	if lenPart == "" || strings.TrimLeft(lenPart, "0123456789") != "" {
		return Prefix{}, fmt.Errorf("%w: bad length in %q", ErrInvalidPrefix, s)
	}
	bits, err := strconv.Atoi(lenPart)
	if err != nil {
		return Prefix{}, fmt.Errorf("%w: bad length in %q: %w", ErrInvalidPrefix, s, err)
	}
	base, err := Parse(addrPart)
	if err != nil {
		return Prefix{}, err
	}
	return NewPrefix(base, bits)
}

// MustParsePrefix is like ParsePrefix but panics on error.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the prefix with its base as given.
func (p Prefix) String() string { return fmt.Sprintf("%s/%d", p.base, p.bits) }

// Base returns the base address.
func (p Prefix) Base() Address { return p.base }

// Bits returns the prefix length.
func (p Prefix) Bits() int { return p.bits }

// Network returns the base truncated to the prefix length.
func (p Prefix) Network() Address { return p.base.Mask(p.bits) }

// Netip returns the canonical netip.Prefix for the network.
func (p Prefix) Netip() netip.Prefix { return netip.PrefixFrom(p.Network().Addr(), p.bits) }

// Contains reports whether the high Bits() bits of a equal those of the base.
// All 16 bytes take part in the comparison.
func (p Prefix) Contains(a Address) bool {
	m := netmask(p.bits)
	for i := range m {
		if a[i]&m[i] != p.base[i]&m[i] {
			return false
		}
	}
	return true
}

// HostCount returns the number of addresses in the network as a big.Int.
func (p Prefix) HostCount() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(128-p.bits))
}

// Last returns the highest address in the network.
func (p Prefix) Last() Address {
	last := p.Network()
	m := netmask(p.bits)
	for i := range last {
		last[i] |= ^m[i]
	}
	return last
}

// Distance returns the unsigned distance between two addresses.
func Distance(a, b Address) *big.Int {
	ai := a.BigInt()
	bi := b.BigInt()
	if ai.Cmp(bi) > 0 {
		ai, bi = bi, ai
	}
	return new(big.Int).Sub(bi, ai)
}
