package config

import "go.uber.org/fx"

// Module wires application and cache configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewCacheConfigHolder,
	),
)
