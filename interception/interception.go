// Package interception dispatches database commands to interceptors.
//
// A DB wraps an ExecQuerier such as *sql.DB or *sql.Tx. Every command it
// executes is reported to the interceptors before and after execution,
// together with its outcome. Interceptors observe commands; failures are
// returned to the caller unchanged and nothing is retried.
package interception

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the kind of a command.
type Kind int

// Command kinds.
const (
	Exec Kind = iota
	Query
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Exec:
		return "exec"
	case Query:
		return "query"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the outcome of an executed command.
type Outcome int

// Command outcomes. Pending is the outcome seen by Executing.
const (
	Pending Outcome = iota
	Succeeded
	Faulted
	Canceled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "Pending"
	case Succeeded:
		return "Succeeded"
	case Faulted:
		return "Faulted"
	case Canceled:
		return "Canceled"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Command is a database command. The same value is passed to Executing and
// Executed.
type Command struct {
	ID    uuid.UUID
	Kind  Kind
	Text  string
	Args  []any
	Start time.Time
	// Duration, Outcome and Err are set before Executed is called.
	Duration time.Duration
	Outcome  Outcome
	Err      error
}

// Interceptor observes commands.
type Interceptor interface {
	// Executing is called before the command is sent to the database.
	Executing(ctx context.Context, cmd *Command)
	// Executed is called after the command completed or failed.
	Executed(ctx context.Context, cmd *Command)
}

// Funcs is an Interceptor built from functions. Nil functions are skipped.
type Funcs struct {
	ExecutingFunc func(context.Context, *Command)
	ExecutedFunc  func(context.Context, *Command)
}

// Executing calls f.ExecutingFunc.
func (f Funcs) Executing(ctx context.Context, cmd *Command) {
	if f.ExecutingFunc != nil {
		f.ExecutingFunc(ctx, cmd)
	}
}

// Executed calls f.ExecutedFunc.
func (f Funcs) Executed(ctx context.Context, cmd *Command) {
	if f.ExecutedFunc != nil {
		f.ExecutedFunc(ctx, cmd)
	}
}

// outcome classifies the error of a command.
func outcome(err error) Outcome {
	switch {
	case err == nil:
		return Succeeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Canceled
	}
	return Faulted
}
