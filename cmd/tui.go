// ABOUTME: Launches the interactive console
// ABOUTME: Wires the shared collaborators into the bubbletea application

package cmd

import (
	"context"

	"github.com/lyonmu/quebec/console/internal/tui"
)

func runTUI(ctx context.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	return tui.Run(tui.Options{
		API:    e.client,
		Store:  e.store,
		Shell:  e.shell,
		Bus:    e.bus,
		Log:    e.log.Named("tui"),
		Server: e.cfg.Server,
	})
}
