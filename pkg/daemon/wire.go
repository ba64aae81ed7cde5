package daemon

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ShutdownID is the request id that tells the worker to exit.
const ShutdownID int32 = -1

// maxArgLength bounds a single argument when decoding, so a corrupt
// length prefix cannot trigger a huge allocation.
const maxArgLength = 64 << 20

// WriteRequest encodes one request record and writes it with a single
// Write call, so records from concurrent writers never interleave as long
// as each call is serialized.
func WriteRequest(w io.Writer, id int32, args []string) error {
	if id < 0 {
		return fmt.Errorf("%w: request id %d is reserved", ErrProtocol, id)
	}
	size := 8
	for _, a := range args {
		size += 4 + len(a)
	}
	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(id))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(args)))
	for _, a := range args {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(a)))
		buf = append(buf, a...)
	}
	_, err := w.Write(buf)
	return err
}

// WriteShutdown writes the shutdown sentinel. It carries no body.
func WriteShutdown(w io.Writer) error {
	id := ShutdownID
	_, err := w.Write(binary.BigEndian.AppendUint32(nil, uint32(id)))
	return err
}

// ReadRequest decodes one request record. For the shutdown sentinel the
// returned args are nil. A stream that ends exactly at a record boundary
// returns io.EOF.
func ReadRequest(r io.Reader) (int32, []string, error) {
	id, err := readInt32(r, true)
	if err != nil {
		return 0, nil, err
	}
	if id == ShutdownID {
		return id, nil, nil
	}
	if id < 0 {
		return 0, nil, fmt.Errorf("%w: negative request id %d", ErrProtocol, id)
	}

	count, err := readInt32(r, false)
	if err != nil {
		return 0, nil, err
	}
	if count < 0 {
		return 0, nil, fmt.Errorf("%w: negative argument count %d", ErrProtocol, count)
	}

	args := make([]string, 0, min(int(count), 1024))
	for i := int32(0); i < count; i++ {
		n, err := readInt32(r, false)
		if err != nil {
			return 0, nil, err
		}
		if n < 0 || n > maxArgLength {
			return 0, nil, fmt.Errorf("%w: argument %d has length %d", ErrProtocol, i, n)
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, nil, truncated(err)
		}
		if !utf8.Valid(b) {
			return 0, nil, fmt.Errorf("%w: argument %d is not valid UTF-8", ErrProtocol, i)
		}
		args = append(args, string(b))
	}
	return id, args, nil
}

// WriteCompletion encodes one completion record.
func WriteCompletion(w io.Writer, id int32, ok bool) error {
	buf := binary.BigEndian.AppendUint32(make([]byte, 0, 5), uint32(id))
	if ok {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	_, err := w.Write(buf)
	return err
}

// ReadCompletion decodes one completion record. Any nonzero status byte
// means success.
func ReadCompletion(r io.Reader) (int32, bool, error) {
	var buf [5]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return 0, false, io.EOF
		}
		return 0, false, truncated(err)
	}
	return int32(binary.BigEndian.Uint32(buf[:4])), buf[4] != 0, nil
}

func readInt32(r io.Reader, boundary bool) (int32, error) {
	var buf [4]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if boundary && n == 0 && errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, truncated(err)
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// truncated maps a short read to ErrProtocol. Other transport errors are
// returned as they are.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrProtocol, io.ErrUnexpectedEOF)
	}
	return err
}
