package commands

import (
	"context"

	"github.com/de-tools/flow-atlas/pkg/runtime/app"
)

// Opener builds the application for one command invocation; the caller closes it
type Opener func(ctx context.Context) (*app.App, error)
