package main

import (
	"go.uber.org/zap"

	"github.com/AndrewDonelson/claimcheck"
)

// zapAdapter routes the library's Logger interface onto a zap sugared
// logger.
type zapAdapter struct {
	s *zap.SugaredLogger
}

var _ claimcheck.Logger = zapAdapter{}

func (z zapAdapter) Info(msg string, keysAndValues ...any)  { z.s.Infow(msg, keysAndValues...) }
func (z zapAdapter) Warn(msg string, keysAndValues ...any)  { z.s.Warnw(msg, keysAndValues...) }
func (z zapAdapter) Error(msg string, keysAndValues ...any) { z.s.Errorw(msg, keysAndValues...) }
func (z zapAdapter) Debug(msg string, keysAndValues ...any) { z.s.Debugw(msg, keysAndValues...) }
