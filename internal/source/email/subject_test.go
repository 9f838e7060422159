package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "RE: Opening B071 confirmation", want: "RE: Opening B071 confirmation"},
		{name: "empty", raw: "", want: ""},
		{name: "base64 utf-8", raw: "=?UTF-8?B?w5xuw69jb2RlIEIwNzE=?=", want: "Ünïcode B071"},
		{
			name: "mixed charsets",
			raw:  "=?UTF-8?B?UkU6IE9wZW5pbmcg?= =?ISO-8859-1?Q?B071_confirmaci=F3n?=",
			want: "RE: Opening B071 confirmación",
		},
		{name: "windows-1252", raw: "=?windows-1252?Q?B071_=93ok=94?=", want: "B071 “ok”"},
		{name: "unknown charset", raw: "=?x-made-up?Q?B071_ready?=", want: "B071 ready"},
		{name: "invalid bytes dropped", raw: "=?UTF-8?Q?B071=FF_done?=", want: "B071 done"},
		{name: "folded", raw: "RE: Opening\r\n B071", want: "RE: Opening B071"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeSubject(tt.raw))
		})
	}
}

func TestSubjectFromMessage(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"Subject: =?UTF-8?B?UkU6IE9wZW5pbmcg?=\r\n" +
		" =?UTF-8?Q?B071_confirmation?=\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"body\r\n"

	subject, err := SubjectFromMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "RE: Opening B071 confirmation", subject)
}

func TestSubjectFromMessage_NoSubject(t *testing.T) {
	subject, err := SubjectFromMessage([]byte("From: a@example.com\r\n\r\nbody"))
	require.NoError(t, err)
	assert.Empty(t, subject)
}

func TestSubjectFromMessage_MalformedHeader(t *testing.T) {
	_, err := SubjectFromMessage([]byte("this is not a header line\r\n\r\n"))
	assert.Error(t, err)
}
