package logging

import (
	"go.uber.org/zap"
)

type impl struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

// Sublogger returns a named child logger. The child shares its parent's level.
func (imp *impl) Sublogger(subname string) Logger {
	return &impl{
		SugaredLogger: imp.Named(subname),
		level:         imp.level,
	}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	return levelFromZap(imp.level.Level())
}
