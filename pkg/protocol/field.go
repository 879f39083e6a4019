package protocol

import "fmt"

// FieldType enumerates the fixed-width field kinds a packet layout may use.
type FieldType uint8

const (
	FieldByte   FieldType = iota // unsigned 8-bit
	FieldSByte                   // signed 8-bit
	FieldShort                   // signed 16-bit big-endian
	FieldInt                     // signed 32-bit big-endian
	FieldString                  // fixed-width space-padded ASCII
	FieldBytes                   // fixed-width raw bytes
)

// String returns the string representation of the field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldByte:
		return "Byte"
	case FieldSByte:
		return "SByte"
	case FieldShort:
		return "Short"
	case FieldInt:
		return "Int"
	case FieldString:
		return "String"
	case FieldBytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// StringWidth is the width of a standard string field on the classic wire.
const StringWidth = 64

// Field is one typed, fixed-width field in a packet layout.
type Field struct {
	Name  string
	Type  FieldType
	Width int // only meaningful for FieldString and FieldBytes
}

// Size returns the field's width on the wire in bytes.
func (f Field) Size() int {
	switch f.Type {
	case FieldByte, FieldSByte:
		return 1
	case FieldShort:
		return 2
	case FieldInt:
		return 4
	default:
		return f.Width
	}
}

// Field constructors.

// Byte declares an unsigned 8-bit field.
func Byte(name string) Field { return Field{Name: name, Type: FieldByte} }

// SByte declares a signed 8-bit field.
func SByte(name string) Field { return Field{Name: name, Type: FieldSByte} }

// Short declares a signed 16-bit big-endian field.
func Short(name string) Field { return Field{Name: name, Type: FieldShort} }

// Int declares a signed 32-bit big-endian field.
func Int(name string) Field { return Field{Name: name, Type: FieldInt} }

// String declares a standard 64-byte padded string field.
func String(name string) Field {
	return Field{Name: name, Type: FieldString, Width: StringWidth}
}

// StringN declares a padded string field of the given width.
func StringN(name string, width int) Field {
	return Field{Name: name, Type: FieldString, Width: width}
}

// Bytes declares a raw byte field of the given width.
func Bytes(name string, width int) Field {
	return Field{Name: name, Type: FieldBytes, Width: width}
}

// Layout is the ordered field list of one packet body (everything after the
// opcode byte). Layouts are fixed-width: no variable-length fields exist at
// this layer.
type Layout []Field

// Size returns the total body size in bytes.
func (l Layout) Size() int {
	n := 0
	for _, f := range l {
		n += f.Size()
	}
	return n
}

// Encode serializes vals in declared field order into a contiguous byte
// sequence in network byte order, appending to enc.
//
// Accepted value types per field: Byte takes byte or int; SByte int8 or int;
// Short int16 or int; Int int32 or int; String string; Bytes []byte.
// Integers passed as int are range-checked against the field width.
func (l Layout) Encode(enc *Encoder, vals ...any) error {
	if len(vals) != len(l) {
		return fmt.Errorf("%w: layout has %d fields, got %d values", ErrValueCount, len(l), len(vals))
	}
	for i, f := range l {
		if err := encodeField(enc, f, vals[i]); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

// Decode is the inverse of Encode: it reads each field in declared order and
// returns the typed values (byte, int8, int16, int32, string, []byte).
func (l Layout) Decode(dec *Decoder) ([]any, error) {
	vals := make([]any, 0, len(l))
	for _, f := range l {
		v, err := decodeField(dec, f)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func encodeField(enc *Encoder, f Field, val any) error {
	switch f.Type {
	case FieldByte:
		switch v := val.(type) {
		case byte:
			enc.WriteByte(v)
		case int:
			if v < 0 || v > 0xff {
				return fmt.Errorf("%w: %d does not fit a byte", ErrValueRange, v)
			}
			enc.WriteByte(byte(v))
		default:
			return fmt.Errorf("%w: want byte, got %T", ErrValueType, val)
		}
	case FieldSByte:
		switch v := val.(type) {
		case int8:
			enc.WriteSByte(v)
		case int:
			if v < -128 || v > 127 {
				return fmt.Errorf("%w: %d does not fit a signed byte", ErrValueRange, v)
			}
			enc.WriteSByte(int8(v))
		default:
			return fmt.Errorf("%w: want int8, got %T", ErrValueType, val)
		}
	case FieldShort:
		switch v := val.(type) {
		case int16:
			enc.WriteShort(v)
		case int:
			if v < -32768 || v > 32767 {
				return fmt.Errorf("%w: %d does not fit a short", ErrValueRange, v)
			}
			enc.WriteShort(int16(v))
		default:
			return fmt.Errorf("%w: want int16, got %T", ErrValueType, val)
		}
	case FieldInt:
		switch v := val.(type) {
		case int32:
			enc.WriteInt(v)
		case int:
			if v < -2147483648 || v > 2147483647 {
				return fmt.Errorf("%w: %d does not fit an int", ErrValueRange, v)
			}
			enc.WriteInt(int32(v))
		default:
			return fmt.Errorf("%w: want int32, got %T", ErrValueType, val)
		}
	case FieldString:
		v, ok := val.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrValueType, val)
		}
		enc.WriteString(v, f.Width)
	case FieldBytes:
		v, ok := val.([]byte)
		if !ok {
			return fmt.Errorf("%w: want []byte, got %T", ErrValueType, val)
		}
		enc.WriteFixedBytes(v, f.Width)
	default:
		return fmt.Errorf("%w: unknown field type %d", ErrValueType, f.Type)
	}
	return nil
}

func decodeField(dec *Decoder, f Field) (any, error) {
	switch f.Type {
	case FieldByte:
		return dec.ReadByte()
	case FieldSByte:
		return dec.ReadSByte()
	case FieldShort:
		return dec.ReadShort()
	case FieldInt:
		return dec.ReadInt()
	case FieldString:
		return dec.ReadString(f.Width)
	case FieldBytes:
		return dec.ReadBytes(f.Width)
	default:
		return nil, fmt.Errorf("%w: unknown field type %d", ErrValueType, f.Type)
	}
}
