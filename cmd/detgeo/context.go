package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/detgeo/pkg/config"
	"github.com/chazu/detgeo/pkg/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	config *config.Config
	logger *zap.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		logger:      zap.NewNop(),
	}
}

// setup loads configuration and builds the logger. It is idempotent.
func (c *commandContext) setup() error {
	if c.config != nil {
		return nil
	}
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return err
	}
	verbose := c.verboseFlag != nil && *c.verboseFlag
	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = logger
	return nil
}

func (c *commandContext) sync() {
	_ = c.logger.Sync()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
