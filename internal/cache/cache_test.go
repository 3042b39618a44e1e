package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetMissThenHit(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get(OpMatches, "user-1")
	assert.False(t, ok)

	c.Set(OpMatches, "user-1", []string{"a", "b"})

	got, ok := c.Get(OpMatches, "user-1")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEntriesAreScopedPerUser(t *testing.T) {
	c := New(time.Minute)

	c.Set(OpMatches, "user-1", "belongs to user 1")

	_, ok := c.Get(OpMatches, "user-2")
	assert.False(t, ok, "one user's entry must be invisible to another")

	got, ok := c.Get(OpMatches, "user-1")
	assert.True(t, ok)
	assert.Equal(t, "belongs to user 1", got)
}

func TestEntriesAreScopedPerOperation(t *testing.T) {
	c := New(time.Minute)

	c.Set(OpMatches, "user-1", "matches")

	_, ok := c.Get(OpOpponents, "user-1")
	assert.False(t, ok)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.Set(OpCurrentLevel, "user-1", 4.5)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get(OpCurrentLevel, "user-1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidateDropsOnlyNamedOps(t *testing.T) {
	c := New(time.Minute)

	c.Set(OpMatches, "user-1", "m")
	c.Set(OpOpponents, "user-1", "o")
	c.Set(OpCurrentLevel, "user-1", "l")

	c.Invalidate("user-1", OpMatches, OpOpponents)

	_, ok := c.Get(OpMatches, "user-1")
	assert.False(t, ok)
	_, ok = c.Get(OpOpponents, "user-1")
	assert.False(t, ok)
	_, ok = c.Get(OpCurrentLevel, "user-1")
	assert.True(t, ok)
}

func TestInvalidateLeavesOtherUsersAlone(t *testing.T) {
	c := New(time.Minute)

	c.Set(OpMatches, "user-1", "m1")
	c.Set(OpMatches, "user-2", "m2")

	c.Invalidate("user-1", ReadOps...)

	_, ok := c.Get(OpMatches, "user-2")
	assert.True(t, ok)
}

func TestInvalidateMissingEntryIsANoOp(t *testing.T) {
	c := New(time.Minute)

	assert.NotPanics(t, func() {
		c.Invalidate("user-1", OpMatches)
		c.Invalidate("user-1", OpMatches)
	})
}

func TestInvalidateUserDropsEverythingForThatUser(t *testing.T) {
	c := New(time.Minute)

	for _, op := range ReadOps {
		c.Set(op, "user-1", "v")
		c.Set(op, "user-2", "v")
	}

	c.InvalidateUser("user-1")

	for _, op := range ReadOps {
		_, ok := c.Get(op, "user-1")
		assert.False(t, ok)
		_, ok = c.Get(op, "user-2")
		assert.True(t, ok)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				c.Set(OpMatches, "user-1", j)
				c.Get(OpMatches, "user-1")
				c.Invalidate("user-1", OpMatches)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}
