package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name    string
	initErr error
	oneShot bool
	log     *[]string
	mu      *sync.Mutex
}

func (f *fakeModule) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	*f.log = append(*f.log, f.name+":"+s)
}

func (f *fakeModule) Init() error {
	f.record("init")
	return f.initErr
}

func (f *fakeModule) Run(done <-chan struct{}) {
	if !f.oneShot {
		<-done
	}
}

func (f *fakeModule) Destroy() {
	f.record("destroy")
	if f.name == "panicky" {
		panic("boom")
	}
}

func TestRun(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	a := &fakeModule{name: "a", log: &log, mu: &mu}
	b := &fakeModule{name: "panicky", log: &log, mu: &mu}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, Run(ctx, a, b))
	assert.Equal(t, []string{"a:init", "panicky:init", "panicky:destroy", "a:destroy"}, log)
}

func TestRunFinishes(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	a := &fakeModule{name: "a", oneShot: true, log: &log, mu: &mu}
	require.NoError(t, Run(context.Background(), a))
	assert.Equal(t, []string{"a:init", "a:destroy"}, log)
}

func TestRunInitError(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	boom := errors.New("boom")
	a := &fakeModule{name: "a", log: &log, mu: &mu}
	b := &fakeModule{name: "b", initErr: boom, log: &log, mu: &mu}

	err := Run(context.Background(), a, b)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:init", "b:init", "a:destroy"}, log)
}

func TestMustConf(t *testing.T) {
	isStackBuf, stackBufLen := defaultIsStackBuf, defaultStackBufLen
	t.Cleanup(func() {
		defaultIsStackBuf, defaultStackBufLen = isStackBuf, stackBufLen
	})

	MustConf(ModuleConf{IsStackBuf: true})
	assert.True(t, defaultIsStackBuf)
	assert.Equal(t, stackBufLen, defaultStackBufLen)

	MustConf(ModuleConf{IsStackBuf: true, StackBufLen: 128})
	assert.Equal(t, 128, defaultStackBufLen)

	var (
		log []string
		mu  sync.Mutex
	)
	b := &fakeModule{name: "panicky", oneShot: true, log: &log, mu: &mu}
	require.NoError(t, Run(context.Background(), b))
	assert.Equal(t, []string{"panicky:init", "panicky:destroy"}, log)
}
