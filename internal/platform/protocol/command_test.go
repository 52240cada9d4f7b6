package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Command
		wantErr error
	}{
		{name: "get", line: "get key1", want: Command{Verb: GET, Key: "key1"}},
		{name: "upper case verb", line: "GET key1", want: Command{Verb: GET, Key: "key1"}},
		{name: "mixed case put", line: "Put k v", want: Command{Verb: PUT, Key: "k", Value: "v"}},
		{name: "delete", line: "delete k\r\n", want: Command{Verb: DELETE, Key: "k"}},
		{name: "extra whitespace", line: "  put \t k   v ", want: Command{Verb: PUT, Key: "k", Value: "v"}},
		{name: "key case kept", line: "get KeY", want: Command{Verb: GET, Key: "KeY"}},
		{name: "empty", line: "   ", wantErr: ErrEmptyLine},
		{name: "unknown verb", line: "set k v", wantErr: ErrInvalidCommand},
		{name: "get without key", line: "get", wantErr: ErrMissingArgument},
		{name: "put without value", line: "put k", wantErr: ErrMissingArgument},
		{name: "put with spaces in value", line: "put k v w", wantErr: ErrExtraArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
