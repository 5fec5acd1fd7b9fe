package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Equal(t, 0, tracker.Collisions())
}

func TestTracker_Verify_FirstSight(t *testing.T) {
	tracker := NewTracker()

	collided := tracker.Verify(0x1234, "UInt32")
	require.False(t, collided)
	require.Equal(t, 1, tracker.Count())
	require.False(t, tracker.HasCollision())
}

func TestTracker_Verify_SameHashSameString(t *testing.T) {
	tracker := NewTracker()

	require.False(t, tracker.Verify(0x1234, "UInt32"))
	require.False(t, tracker.Verify(0x1234, "UInt32"))
	require.Equal(t, 1, tracker.Count())
	require.False(t, tracker.HasCollision())
}

func TestTracker_Verify_Collision(t *testing.T) {
	tracker := NewTracker()

	require.False(t, tracker.Verify(0x1234, "UInt32"))
	collided := tracker.Verify(0x1234, "String")
	require.True(t, collided)
	require.True(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.Collisions())
}

func TestTracker_Verify_MultipleCollisions(t *testing.T) {
	tracker := NewTracker()

	require.False(t, tracker.Verify(0x0001, "a"))
	require.True(t, tracker.Verify(0x0001, "b"))
	require.False(t, tracker.Verify(0x0002, "c"))
	require.True(t, tracker.Verify(0x0002, "d"))

	require.Equal(t, 2, tracker.Collisions())
	require.True(t, tracker.HasCollision())
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()

	tracker.Verify(0x0001, "a")
	tracker.Verify(0x0001, "b")
	require.True(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.Count())

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Equal(t, 0, tracker.Collisions())

	require.False(t, tracker.Verify(0x0002, "c"))
	require.Equal(t, 1, tracker.Count())
}
