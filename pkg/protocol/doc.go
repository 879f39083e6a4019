// Package protocol implements the binary wire protocol of the server: the
// fixed-width field codec, packet definitions, the per-direction packet
// registries with their inbound hot-path cache, and capability negotiation.
//
// # Wire Format
//
// Every packet is a 1-byte opcode followed by a fixed-width field sequence
// in network byte order. There is no length prefix or delimiter: frame
// boundaries are implied by each opcode's fixed total size, so a reader
// dispatches on the opcode and then reads exactly Size()-1 further bytes.
//
// # Field Types
//
//   - Byte: unsigned 8-bit
//   - SByte: signed 8-bit
//   - Short: signed 16-bit, big-endian
//   - Int: signed 32-bit, big-endian
//   - String: fixed-width ASCII, space-padded on encode, NUL/space-stripped
//     on decode
//   - Bytes: fixed-width raw bytes, NUL-padded on encode
//
// # Directions and Criticality
//
// Packets are registered per direction (inbound, outbound); opcodes are
// unique within a direction but may repeat across directions. A codec error
// on a critical packet is fatal to its connection; on a non-critical packet
// it is routed to the definition's OnError handler and the connection
// continues.
//
// # Capabilities
//
// Optional protocol behavior is negotiated per connection as (name, version)
// capability pairs. The effective set is the exact intersection of what both
// sides declared; packets gated on a capability the peer lacks are silently
// skipped rather than treated as errors.
package protocol
