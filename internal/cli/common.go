package cli

import (
	"fmt"

	"github.com/srmjournal/oja/internal/config"
	"github.com/srmjournal/oja/internal/engine"
	"github.com/srmjournal/oja/internal/ojs"
	"github.com/srmjournal/oja/internal/pdfinfo"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(debug bool) (*engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (run 'oja settings' to configure)", err)
	}

	clientCfg := ojs.Config{
		BaseURL:  cfg.BaseURL,
		APIToken: cfg.APIToken,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if debug {
		clientCfg.Debug = func(format string, args ...any) {
			PrintInfo(fmt.Sprintf("[debug] "+format, args...))
		}
	}

	client, err := ojs.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	return engine.New(client, ojs.NewExecutor(client), client, pdfinfo.FileExtractor{}), nil
}
