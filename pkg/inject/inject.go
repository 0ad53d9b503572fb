// Package inject builds the dependency container route handlers resolve from
package inject

import (
	"context"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectoinject/loglevel"
	"github.com/Gobusters/ectologger"
)

// NewContainer creates a container registered under id. The container's own
// diagnostics go to logger: warnings as warnings, the rest at debug.
func NewContainer(id string, logger ectologger.Logger) (ectocontainer.DIContainer, error) {
	return ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:                       id,
		AllowCaptiveDependencies: true,
		AllowMissingDependencies: true,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{
			Prefix:   "ectoinject",
			LogLevel: loglevel.INFO,
			Enabled:  true,
			LogFunc: func(ctx context.Context, level, msg string) {
				log := logger.WithContext(ctx).WithField("container_id", id)
				if level == loglevel.WARN {
					log.Warn(msg)
					return
				}
				log.Debug(msg)
			},
		},
	})
}
