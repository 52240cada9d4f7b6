// Package protocol parses the line-oriented text commands accepted by the TCP
// front end and renders their replies.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

type Verb string

const (
	GET    Verb = "get"
	PUT    Verb = "put"
	DELETE Verb = "delete"
)

const (
	ReplyOK             = "OK"
	ReplyNotFound       = "Key not found"
	ReplyInvalidCommand = "Invalid command"
)

var (
	ErrEmptyLine       = errors.New("empty line")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrMissingArgument = errors.New("missing argument")
	ErrExtraArgument   = errors.New("too many arguments")
)

type Command struct {
	Verb  Verb
	Key   string
	Value string
}

var arity = map[Verb]int{
	GET:    1,
	PUT:    2,
	DELETE: 1,
}

// Parse splits line on whitespace. The verb is matched case-insensitively;
// keys and values are taken verbatim.
func Parse(line string) (Command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, ErrEmptyLine
	}
	verb := Verb(strings.ToLower(tokens[0]))
	want, ok := arity[verb]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, tokens[0])
	}
	args := tokens[1:]
	if len(args) < want {
		return Command{}, fmt.Errorf("%w: %s expects %d", ErrMissingArgument, verb, want)
	}
	if len(args) > want {
		return Command{}, fmt.Errorf("%w: %s expects %d", ErrExtraArgument, verb, want)
	}

	cmd := Command{Verb: verb, Key: args[0]}
	if verb == PUT {
		cmd.Value = args[1]
	}
	return cmd, nil
}

// ErrorReply renders a failure that is not covered by a fixed reply.
func ErrorReply(err error) string {
	return "ERR " + err.Error()
}
