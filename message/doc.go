// Package message implements the binary frame codec of the motion-controller
// protocol.
//
// Every frame starts with a 6-byte little-endian header:
//
//	short form: [ID(2)][Param1(1)][Param2(1)][Dest(1)][Source(1)]
//	long form:  [ID(2)][Length(2)][Dest|0x80(1)][Source(1)][Payload(Length)]
//
// Bit 7 of the destination byte distinguishes the two forms. The payload layout
// of a long frame is fixed by its message ID; layouts are declared once in a
// table (see Lookup) and both EncodeLong and Decode are driven from it, so a
// layout change is made in exactly one place.
//
// Payload values are exchanged as Values, a name-to-value map holding int64 for
// integer fields, float64 for float fields and []byte for fixed-size blocks.
// Values are always raw device units; physical unit scaling lives in the units
// package.
package message
