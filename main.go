package main

import (
	"os"

	"github.com/lumina3d/lumina/engine"
	"github.com/lumina3d/lumina/engine/core"
)

func main() {
	cfg, err := engine.LoadConfig("lumina.toml")
	if err != nil {
		core.LogError(err.Error())
		os.Exit(1)
	}

	e := engine.New(cfg)
	defer e.Cleanup()

	if err := e.Init(); err != nil {
		core.LogError("initialization failed: %s", err.Error())
		e.Cleanup()
		os.Exit(1)
	}

	if err := e.Run(); err != nil {
		e.Cleanup()
		os.Exit(1)
	}
}
