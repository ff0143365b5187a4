package telemetry

import "go.uber.org/zap"

// NewLogger builds a zap logger at the given level ("debug", "info",
// "warn", "error"); any other value falls back to the production
// config's default (info).
func NewLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	case "info", "warn", "error":
		cfg = zap.NewProductionConfig()
		cfg.Level = parseLevel(level)
	default:
		cfg = zap.NewProductionConfig()
	}
	return cfg.Build()
}

func parseLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
