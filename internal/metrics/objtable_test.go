package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wl-go/wlgo/internal/objtable"
)

func TestRecorderNilWhenDisabled(t *testing.T) {
	mu.Lock()
	registry = nil
	mu.Unlock()

	r := NewRecorder(objtable.ServerSide)
	assert.Nil(t, r)

	// Every method on a nil Recorder must be a safe no-op.
	r.ObserveOp(objtable.ServerSide, "insert_new", nil)
	r.ObserveEviction()
	r.ObserveSnapshot(objtable.Stats{})
}

func TestRecorderTracksOperationsAndSnapshots(t *testing.T) {
	InitRegistry()
	require.True(t, IsEnabled())

	r := NewRecorder(objtable.ServerSide)
	require.NotNil(t, r)

	tbl := objtable.New(objtable.ServerSide)
	id := tbl.InsertNew(0, "payload")
	r.ObserveOp(objtable.ServerSide, "insert_new", nil)

	_, err := tbl.Zombify(id+100, nil)
	r.ObserveOp(objtable.ServerSide, "zombify", err)
	require.Error(t, err)

	r.ObserveEviction()
	r.ObserveSnapshot(tbl.Snapshot())

	families, err := GetRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
