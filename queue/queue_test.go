package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ydc/docpub/vault"
)

func TestQueueFIFO(t *testing.T) {
	q := NewMemory("rename")
	require.Equal(t, "rename", q.Name())

	for i := 0; i < 5; i++ {
		require.Nil(t, q.Send(RenameOp{
			From: fmt.Sprintf("old-%d.md", i),
			To:   vault.NewFile(fmt.Sprintf("new-%d.md", i)),
		}))
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		var op RenameOp
		ok, err := q.Receive(&op)
		require.Nil(t, err)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("old-%d.md", i), op.From)
		require.Equal(t, fmt.Sprintf("new-%d.md", i), op.To.Path)
	}

	var op RenameOp
	ok, err := q.Receive(&op)
	require.Nil(t, err)
	require.False(t, ok)
}

func TestQueueEmptyReceive(t *testing.T) {
	q := NewMemory("remove")
	var op RemoveOp
	ok, err := q.Receive(&op)
	require.Nil(t, err)
	require.False(t, ok)
	require.Equal(t, 0, q.Len())
}

func TestQueueEnqueueDuringDrain(t *testing.T) {
	q := NewMemory("remove")
	require.Nil(t, q.Send(RemoveOp{Target: vault.NewFile("a.md")}))

	var op RemoveOp
	ok, err := q.Receive(&op)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "a.md", op.Target.Path)

	// More entries may arrive while a drain is in flight
	require.Nil(t, q.Send(RemoveOp{Target: vault.NewFile("b.md")}))
	ok, err = q.Receive(&op)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "b.md", op.Target.Path)
}
