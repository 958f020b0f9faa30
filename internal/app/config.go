package app

import "github.com/hallvik/quizrelay/internal/config"

// Config is the loaded YAML/env configuration; aliased here so callers
// in this package depend on app.Config rather than reaching into
// internal/config directly.
type Config = config.Config
