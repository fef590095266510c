package provision

import (
	"context"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// ResetPrompt is the question asked before a factory reset.
const ResetPrompt = "ARE YOU SURE? This is impossible to undo."

// ErrUserAbort is returned when the user declines a factory reset.
var ErrUserAbort = output.NewError(output.CodeUserAbort, "Aborted.")

// Reset wipes the card after confirm returns true. Declining returns
// ErrUserAbort without touching the card.
func (p *Provisioner) Reset(ctx context.Context, confirm func(prompt string) (bool, error)) error {
	ok, err := confirm(ResetPrompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserAbort
	}
	return p.client.Edit(ctx, factoryResetScript())
}
