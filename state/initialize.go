package state

import (
	"time"

	"stylify/config"
	"stylify/stylify"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// ScopingOptions returns engine options from configuration. Without
// configuration engine defaults are used.
func (e *LocalEnv) ScopingOptions() stylify.Options {
	opts := stylify.DefaultOptions()
	if e.Cfg == nil {
		return opts
	}
	sc := e.Cfg.Scoping
	opts.NormalizeHTML = sc.NormalizeHTML
	opts.ReplaceElement = sc.ReplaceElement
	opts.RemoveScripts = sc.RemoveScripts
	opts.UniqueSuffix = sc.UniqueSuffix
	opts.RepairAttempts = sc.RepairAttempts
	opts.XHTML = e.Cfg.Output.Format == config.OutputFmtXHTML
	return opts
}
