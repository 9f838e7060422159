package email

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/textproto"
)

// unfold removes header line folding.
var unfold = strings.NewReplacer("\r\n", "", "\n", "")

// subjectDecoder decodes RFC 2047 encoded words using go-message's
// charset tables. Unknown charsets pass through as raw bytes.
var subjectDecoder = &mime.WordDecoder{
	CharsetReader: func(label string, input io.Reader) (io.Reader, error) {
		r, err := charset.Reader(label, input)
		if err != nil {
			return input, nil
		}
		return r, nil
	},
}

// DecodeSubject turns a raw Subject header value into readable text.
// It never fails: bytes that are not valid UTF-8 after decoding are
// dropped.
func DecodeSubject(raw string) string {
	if raw == "" {
		return ""
	}

	raw = unfold.Replace(raw)
	decoded, err := subjectDecoder.DecodeHeader(raw)
	if err != nil {
		decoded = raw
	}
	return strings.ToValidUTF8(decoded, "")
}

// SubjectFromMessage parses the header block of a full RFC 5322
// message and returns its decoded subject.
func SubjectFromMessage(raw []byte) (string, error) {
	header, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return "", fmt.Errorf("reading message header: %w", err)
	}
	return DecodeSubject(header.Get("Subject")), nil
}
