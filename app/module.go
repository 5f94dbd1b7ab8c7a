package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

var (
	defaultIsStackBuf  = false
	defaultStackBufLen = 4096
)

type (
	ModuleConf struct {
		// Log the stack when a module panics on shutdown
		IsStackBuf  bool `json:",optional"`
		StackBufLen int  `json:",default=4096"`
	}

	// Module is one long running part of a process.
	Module interface {
		// Init prepares the module. A failing Init aborts startup.
		Init() error
		// Run blocks until done is closed or the module has finished.
		Run(done <-chan struct{})
		Destroy()
	}

	module struct {
		mi   Module
		wg   sync.WaitGroup
		done chan struct{}
	}
)

// MustConf applies conf to every later Run.
func MustConf(conf ModuleConf) {
	defaultIsStackBuf = conf.IsStackBuf
	if conf.StackBufLen > 0 {
		defaultStackBufLen = conf.StackBufLen
	}
}

// Run initializes mods in order, runs each on its own goroutine and waits
// for ctx to end or for every module to return. Modules are destroyed in
// reverse order.
func Run(ctx context.Context, mods ...Module) error {
	ms := make([]*module, 0, len(mods))
	for _, mi := range mods {
		if err := mi.Init(); err != nil {
			destroyAll(ms)
			return fmt.Errorf("app: init %T: %w", mi, err)
		}
		ms = append(ms, &module{mi: mi, done: make(chan struct{})})
	}

	finished := make(chan struct{})
	var all sync.WaitGroup
	for _, m := range ms {
		m := m
		m.wg.Add(1)
		all.Add(1)
		go func() {
			defer all.Done()
			defer m.wg.Done()
			m.mi.Run(m.done)
		}()
	}
	go func() {
		all.Wait()
		close(finished)
	}()

	select {
	case <-ctx.Done():
	case <-finished:
	}

	destroyAll(ms)
	return nil
}

func destroyAll(ms []*module) {
	for i := len(ms) - 1; i >= 0; i-- {
		m := ms[i]
		close(m.done)
		m.wg.Wait()
		destroy(m.mi)
	}
}

func destroy(mi Module) {
	defer func() {
		if r := recover(); r != nil {
			if defaultIsStackBuf {
				buf := make([]byte, defaultStackBufLen)
				l := runtime.Stack(buf, false)
				xlog.Write().Sugar().Errorf("%v: %s", r, buf[:l])
			} else {
				xlog.Write().Error("module destroy panic", zap.Any("panic", r))
			}
		}
	}()

	mi.Destroy()
}
