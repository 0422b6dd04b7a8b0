package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	fake := NewFake()

	var fired []string
	fake.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	fake.AfterFunc(time.Second, func() { fired = append(fired, "a") })

	fake.Advance(500 * time.Millisecond)
	assert.Empty(t, fired)

	fake.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Zero(t, fake.Pending())
}

func TestFakeStopPreventsFiring(t *testing.T) {
	fake := NewFake()

	fired := false
	timer := fake.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports already stopped")

	fake.Advance(5 * time.Second)
	assert.False(t, fired)
}

func TestFakeNowAdvances(t *testing.T) {
	fake := NewFake()
	before := fake.Now()
	fake.Advance(time.Minute)
	assert.Equal(t, before.Add(time.Minute), fake.Now())
}
