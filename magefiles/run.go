//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Composes the bundled sample lure at every size.
func (Run) Demo() error {
	fmt.Println("Run demo...")
	if _, err := executeCmd("go", withArgs("run", ".", "demo", "--log-level", "debug"), withStream()); err != nil {
		return err
	}
	return nil
}

// Composes the assets in ./assets once using lurekit.toml.
func (Run) Compose() error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("bin/lurekit", withArgs("compose", "--config", "lurekit.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
