package domain

import "fmt"

// TransferError reports a failed bulletin download. Step names the FTP phase
// that failed: dial, login, cwd, retr, verify or write.
type TransferError struct {
	Step string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.Step, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ParseError reports a bulletin that is not well-formed XML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse bulletin: %v", e.Err)
	}
	return fmt.Sprintf("parse bulletin %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TimestampError reports a local timestamp that could not be parsed.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("parse timestamp %q: %v", e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }
