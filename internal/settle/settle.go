// Package settle runs independent steps of a workflow so that one failing step never
// prevents the others from running.
package settle

import (
	"context"
	"errors"
	"fmt"
)

// ErrSkipped marks a step that decided not to run, e.g. a missing recipient.
var ErrSkipped = errors.New("skipped")

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Outcome struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Report []Outcome

// All runs every task in order and records its outcome. Panics are recovered into
// failed outcomes. Tasks still run after ctx is cancelled; each one sees ctx and
// decides for itself.
func All(ctx context.Context, tasks ...Task) Report {
	report := make(Report, 0, len(tasks))
	for _, t := range tasks {
		report = append(report, run(ctx, t))
	}
	return report
}

func run(ctx context.Context, t Task) (out Outcome) {
	out.Name = t.Name
	defer func() {
		if r := recover(); r != nil {
			out.OK = false
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	err := t.Run(ctx)
	switch {
	case err == nil:
		out.OK = true
	case errors.Is(err, ErrSkipped):
		out.OK = true
		out.Skipped = true
		out.Error = err.Error()
	default:
		out.Error = err.Error()
	}
	return out
}

// Failed returns the outcomes that did not succeed.
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r {
		if !o.OK {
			failed = append(failed, o)
		}
	}
	return failed
}

// Get returns the outcome recorded under name.
func (r Report) Get(name string) (Outcome, bool) {
	for _, o := range r {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}
