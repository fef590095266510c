package gpg

import (
	"context"
)

// scriptedRunner answers commands by program and first argument.
type scriptedRunner struct {
	replies map[string]string
	errs    map[string]error
	calls   []Command
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{replies: map[string]string{}, errs: map[string]error{}}
}

func (r *scriptedRunner) key(c Command) string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + c.Args[0]
}

func (r *scriptedRunner) Output(_ context.Context, c Command) ([]byte, error) {
	r.calls = append(r.calls, c)
	k := r.key(c)
	if err := r.errs[k]; err != nil {
		return nil, err
	}
	return []byte(r.replies[k]), nil
}

func (r *scriptedRunner) Interact(ctx context.Context, c Command) error {
	_, err := r.Output(ctx, c)
	return err
}

func (r *scriptedRunner) lastCall() string {
	if len(r.calls) == 0 {
		return ""
	}
	return r.calls[len(r.calls)-1].String()
}
