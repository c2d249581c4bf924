package conv

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// HexArrayToBytes converts an array of hexadecimal byte values into
// a []byte. Values may be written as "0x90", "\x90" or "90", and may be
// separated by commas or whitespace. C comments are ignored, which allows
// the function to parse byte tables copied out of a disassembler listing.
func HexArrayToBytes(source io.Reader) ([]byte, error) {
	reader := NewHexArrayReader(source)
	buf := bytes.NewBuffer(nil)

	_, err := io.Copy(buf, reader)
	switch {
	case errors.Is(err, io.EOF):
		// OK.
	case err == nil:
		// OK.
	default:
		return nil, err
	}

	return buf.Bytes(), nil
}

// HexArrayStringToBytes is a convenience wrapper around HexArrayToBytes
// for string inputs.
func HexArrayStringToBytes(str string) ([]byte, error) {
	return HexArrayToBytes(strings.NewReader(str))
}

// BytesToHexArray formats b as a comma separated list of "0x" prefixed
// byte values, the inverse of HexArrayToBytes.
func BytesToHexArray(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	var sb strings.Builder

	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}

		fmt.Fprintf(&sb, "0x%02x", v)
	}

	return sb.String()
}

// NewHexArrayReader returns an io.Reader implementation that converts
// an array containing hex-encoded data into chunks of []byte which
// represent the hex-decoded array data.
func NewHexArrayReader(r io.Reader) io.Reader {
	return &hexArrayReader{
		bufferedSrc: bufio.NewReader(r),
	}
}

type hexArrayReader struct {
	bufferedSrc *bufio.Reader
	pending     []byte
}

func (o *hexArrayReader) Read(p []byte) (int, error) {
	avail := len(p)

	bytesWritten := 0

outer:
	for bytesWritten < avail {
		b, err := o.bufferedSrc.ReadByte()
		switch {
		case errors.Is(err, io.EOF):
			break outer
		case err == nil:
			// Keep going.
		default:
			return bytesWritten, fmt.Errorf("failed to read next byte from reader - %w", err)
		}

		switch {
		case b == '/':
			err := findComment(o.bufferedSrc)
			if err != nil {
				return bytesWritten, err
			}

			continue
		case (b == '0' || b == '\\') && len(o.pending) == 0:
			isPrefix, err := o.skipPrefix()
			if err != nil {
				return bytesWritten, err
			}

			if isPrefix {
				continue
			}

			if b == '\\' {
				return bytesWritten, fmt.Errorf("unexpected escape sequence")
			}
		case !isHexChar(b):
			if len(o.pending) == 1 {
				return bytesWritten, fmt.Errorf("odd number of hex digits before '%c'", b)
			}

			continue
		}

		o.pending = append(o.pending, b)

		if len(o.pending) == 2 {
			_, err := hex.Decode(p[bytesWritten:], o.pending)
			if err != nil {
				return bytesWritten, fmt.Errorf("failed to hex-decode byte - %w", err)
			}

			bytesWritten++

			o.pending = o.pending[:0]
		}
	}

	if bytesWritten == 0 {
		if len(o.pending) > 0 {
			return 0, fmt.Errorf("odd number of hex digits at end of input")
		}

		return 0, io.EOF
	}

	return bytesWritten, nil
}

// skipPrefix consumes the 'x' of a "0x" or "\x" prefix if it is next.
func (o *hexArrayReader) skipPrefix() (bool, error) {
	next, err := o.bufferedSrc.Peek(1)
	switch {
	case errors.Is(err, io.EOF):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to peek at next byte - %w", err)
	}

	if next[0] != 'x' && next[0] != 'X' {
		return false, nil
	}

	_, err = o.bufferedSrc.ReadByte()
	if err != nil {
		return false, fmt.Errorf("failed to discard hex prefix - %w", err)
	}

	return true, nil
}

// findComment finds the remaining C syntax comment. It assumes that
// the reader has already processed the very first comment character
// (i.e., that the next byte read from the reader will be the second
// comment character).
func findComment(bufferedSrc *bufio.Reader) error {
	secondChar, err := bufferedSrc.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read second start of comment char - %w", err)
	}

	switch secondChar {
	case '/':
		_, err := bufferedSrc.ReadBytes('\n')
		switch {
		case err == nil, errors.Is(err, io.EOF):
			_, err = discardWhitespace(bufferedSrc)
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to discard whitespace - %w", err)
			}

			return nil
		default:
			return fmt.Errorf("failed to find newline char for line comment - %w", err)
		}
	case '*':
		for {
			_, err := bufferedSrc.ReadBytes('*')
			if err != nil {
				return fmt.Errorf("failed to find corresponding '*/' end of comment - %w", err)
			}

			nextChar, err := bufferedSrc.ReadByte()
			if err != nil {
				return fmt.Errorf("failed to check if next byte is end of multi-line comment - %w", err)
			}

			if nextChar == '/' {
				return nil
			}

			if nextChar == '*' {
				err = bufferedSrc.UnreadByte()
				if err != nil {
					return fmt.Errorf("failed to unread byte - %w", err)
				}
			}
		}
	default:
		return fmt.Errorf("unknown second start of comment char '%c'", secondChar)
	}
}

func discardWhitespace(bufferedSrc *bufio.Reader) ([]byte, error) {
	tmp := bytes.Buffer{}

	for {
		b, err := bufferedSrc.ReadByte()
		if err != nil {
			return tmp.Bytes(), err
		}

		if unicode.IsSpace(rune(b)) {
			tmp.WriteByte(b)

			continue
		}

		err = bufferedSrc.UnreadByte()
		if err != nil {
			return tmp.Bytes(), fmt.Errorf("failed to unread byte - %w", err)
		}

		return tmp.Bytes(), nil
	}
}

func isHexChar(b byte) bool {
	return (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') || (b >= '0' && b <= '9')
}
