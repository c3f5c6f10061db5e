// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"stylify/config"
	"stylify/stylify"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by scope subcommand
	NoDirs    bool
	Overwrite bool
	CodePage  encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}

// ForceCodePage sets encoding used for all non UTF-8 file names in archives.
// Since zip "standard" does not define file name encoding we may need it for
// old archives. Returns canonical IANA name of the code page.
func (e *LocalEnv) ForceCodePage(name string) (string, error) {
	cp, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", fmt.Errorf("unknown character set '%s': %w", name, err)
	}
	if cp == nil {
		return "", fmt.Errorf("character set '%s' is not supported", name)
	}
	e.CodePage = cp
	n, _ := ianaindex.IANA.Name(cp)
	return n, nil
}

// NewEngine creates scoping engine from current configuration, logging goes
// to program log.
func (e *LocalEnv) NewEngine() (*stylify.Engine, error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	return stylify.New(log, e.ScopingOptions())
}
