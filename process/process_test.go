package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simnet/task"
)

func TestEnvLocalModeDoesNotFallThrough(t *testing.T) {
	parent := New(1, nil, nil)
	parent.SetEnv("HOME", "/home/parent")
	child := New(2, parent, nil)

	_, ok := child.GetEnv("HOME", Local)
	assert.False(t, ok)
}

func TestEnvInheritModeFallsThroughToParent(t *testing.T) {
	parent := New(1, nil, nil)
	parent.SetEnv("HOME", "/home/parent")
	child := New(2, parent, nil)

	v, ok := child.GetEnv("HOME", Inherit)
	require.True(t, ok)
	assert.Equal(t, "/home/parent", v)
}

func TestEnvOwnValueShadowsParent(t *testing.T) {
	parent := New(1, nil, nil)
	parent.SetEnv("HOME", "/home/parent")
	child := New(2, parent, nil)
	child.SetEnv("HOME", "/home/child")

	v, ok := child.GetEnv("HOME", Inherit)
	require.True(t, ok)
	assert.Equal(t, "/home/child", v)
}

func TestWriteFallsThroughToParentWriter(t *testing.T) {
	parent := New(1, nil, nil)
	var got string
	RegisterWriter(parent, func(s string) { got = s })

	child := New(2, parent, nil)
	ok := Write(child, "hello")
	assert.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestWriteReturnsFalseWithNoRegisteredWriter(t *testing.T) {
	p := New(1, nil, nil)
	assert.False(t, Write(p, "hello"))
}

func TestPutFallsBackToConfiguredStdout(t *testing.T) {
	var got string
	p := New(1, nil, func(s string) { got = s })
	p.Put("hello")
	assert.Equal(t, "hello", got)
}

func TestPutPrefersRegisteredWriterOverFallback(t *testing.T) {
	var fallbackCalled bool
	var written string
	p := New(1, nil, func(string) { fallbackCalled = true })
	RegisterWriter(p, func(s string) { written = s })

	p.Put("hi")
	assert.False(t, fallbackCalled)
	assert.Equal(t, "hi", written)
}

func TestReadFallsThroughToParentReader(t *testing.T) {
	parent := New(1, nil, nil)
	RegisterReader(parent, func() (int, bool) { return 42, true })
	child := New(2, parent, nil)

	v, ok := Read[int](child)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestIdentityMutators(t *testing.T) {
	p := New(1, nil, nil)
	p.SetSid(10)
	p.SetUid(1000)
	p.SetGid(1000)
	assert.Equal(t, 10, p.Sid())
	assert.Equal(t, 1000, p.Uid())
	assert.Equal(t, 1000, p.Gid())
}

func TestAwaitDispatchReturnsExitCode(t *testing.T) {
	p := New(1, nil, nil)
	fn := func(proc *Proc) *task.Task[int] {
		return task.NewEager(func() (int, error) { return 7, nil })
	}
	code, err := p.AwaitDispatch(fn, []string{"cmd", "arg"})
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, []string{"cmd", "arg"}, p.Argv())
}

func TestErrlnUsesFailureMarker(t *testing.T) {
	var got string
	p := New(1, nil, func(s string) { got = s })
	p.Errln("boom")
	assert.Equal(t, "✕ boom\n", got)
}
