// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lpm/internal/adapters/archive"
	_ "go.trai.ch/lpm/internal/adapters/cas"
	_ "go.trai.ch/lpm/internal/adapters/config"
	_ "go.trai.ch/lpm/internal/adapters/fs"
	_ "go.trai.ch/lpm/internal/adapters/lockfile"
	_ "go.trai.ch/lpm/internal/adapters/logger"
	_ "go.trai.ch/lpm/internal/adapters/registry"
	// Register app and engine nodes.
	_ "go.trai.ch/lpm/internal/app"
	_ "go.trai.ch/lpm/internal/engine/installer"
	_ "go.trai.ch/lpm/internal/engine/planner"
	_ "go.trai.ch/lpm/internal/engine/resolver"
)
