// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kind classifies a revert.
type Kind uint8

const (
	Invalid Kind = iota
	DuplicateAsset
	InsufficientStake
	InsufficientAllocation
	NotAuthorized
	TransferFailure
)

func (k Kind) String() string {
	switch k {
	case DuplicateAsset:
		return "DuplicateAsset"
	case InsufficientStake:
		return "InsufficientStake"
	case InsufficientAllocation:
		return "InsufficientAllocation"
	case NotAuthorized:
		return "NotAuthorized"
	case TransferFailure:
		return "TransferFailure"
	default:
		return "Invalid"
	}
}

// ErrRevert aborts a contract call. All state written by the call is rolled back.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// Bytes returns the message ABI encoded as Error(string).
func (e *ErrRevert) Bytes() []byte {
	if e == nil {
		return nil
	}

	msg := []byte(e.message)
	padded := ((len(msg) + 31) / 32) * 32

	// selector + offset + length + data
	encoded := make([]byte, 4+32+32+padded)
	copy(encoded, []byte{0x08, 0xc3, 0x79, 0xa0})
	binary.BigEndian.PutUint64(encoded[4+24:], 32)
	binary.BigEndian.PutUint64(encoded[4+32+24:], uint64(len(msg)))
	copy(encoded[4+64:], msg)
	return encoded
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind == kind
	}
	return false
}
