package session_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chazu/ifcextrude/pkg/session"
	"github.com/chazu/ifcextrude/pkg/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetOrCreateOncePerKey(t *testing.T) {
	c := session.NewCache[string, int]()
	scope := c.Scope()

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := scope.GetOrCreate("steel", func() int {
				calls.Add(1)
				return 7
			})
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestScopeRollback(t *testing.T) {
	c := session.NewCache[string, int]()

	first := c.Scope()
	first.GetOrCreate("concrete", func() int { return 1 })
	first.Commit()

	second := c.Scope()
	_, created := second.GetOrCreate("concrete", func() int { return 99 })
	assert.False(t, created)
	second.GetOrCreate("timber", func() int { return 2 })
	second.Update("concrete", func(old int, ok bool) int {
		require.True(t, ok)
		return old + 10
	})
	v, _ := c.Get("concrete")
	require.Equal(t, 11, v)

	second.Rollback()
	v, ok := c.Get("concrete")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Get("timber")
	assert.False(t, ok)

	second.Rollback()
	assert.Equal(t, 1, c.Len())
}

func TestCommitIsFinal(t *testing.T) {
	c := session.NewCache[string, int]()
	s := c.Scope()
	s.GetOrCreate("glass", func() int { return 3 })
	s.Commit()
	s.Rollback()
	_, ok := c.Get("glass")
	assert.True(t, ok)
}

func TestElementScopeLayers(t *testing.T) {
	sess := session.New(nil)

	ok := sess.Begin()
	ok.AddToLayer("A-WALL", step.Handle(4))
	ok.Materials.GetOrCreate("brick", func() step.Handle { return 5 })
	ok.Commit()

	failed := sess.Begin()
	failed.AddToLayer("A-WALL", step.Handle(9))
	failed.AddToLayer("A-COLS", step.Handle(10))
	failed.Materials.GetOrCreate("steel", func() step.Handle { return 11 })
	failed.Rollback()

	reps, _ := sess.Layers.Get("A-WALL")
	assert.Equal(t, []step.Handle{4}, reps)
	assert.ElementsMatch(t, []string{"A-WALL"}, sess.Layers.Keys())
	assert.ElementsMatch(t, []string{"brick"}, sess.Materials.Keys())
}
