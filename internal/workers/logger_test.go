package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"robogateway/internal/config"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
)

func newTestLogEndpoint(t *testing.T) gwstate.LogEndpoint {
	t.Helper()
	cfg := config.NewStore(config.Default())
	sh := gwstate.New(cfg, 0)
	return sh.LogEndpoint()
}

func TestLogDrainAllWithNilWriterStillDrainsRings(t *testing.T) {
	ep := newTestLogEndpoint(t)
	ep.StateRing.Push(gwstate.StateSample{Seq: 1})
	ep.ActionRing.Push(gwstate.ActionSample{Seq: 1})
	ep.EventRing.Push(gwstate.EventSample{})
	ep.SysEventRing.Push(gwstate.EventSample{})

	l := NewLog(ep, nil)
	l.drainAll(nil)

	require.Equal(t, 0, ep.StateRing.Len(), "disabled logging must still drain the state ring so it never backs up")
	require.Equal(t, 0, ep.ActionRing.Len())
	require.Equal(t, 0, ep.EventRing.Len())
	require.Equal(t, 0, ep.SysEventRing.Len())
}

func TestLogReportDropsOnlyWarnsOnChange(t *testing.T) {
	ep := newTestLogEndpoint(t)
	l := NewLog(ep, nil)
	l.lastWarn = time.Time{}

	// Fill past capacity to force drops on the state ring.
	for i := 0; i < ep.StateRing.Cap()+5; i++ {
		ep.StateRing.Push(gwstate.StateSample{Seq: uint32(i)})
	}
	require.Greater(t, ep.StateRing.Drops(), uint64(0))

	l.reportDrops()
	require.Equal(t, ep.StateRing.Drops(), l.lastStateDrops, "reportDrops must record the drop count it just observed")

	// Draining without any new drops should leave lastStateDrops
	// unchanged.
	ep.StateRing.Drain(ep.StateRing.Cap(), func(gwstate.StateSample) {})
	l.lastWarn = time.Time{}
	l.reportDrops()
	require.Equal(t, ep.StateRing.Drops(), l.lastStateDrops)
}

func TestLogDrainAllDrainsSysEventRingWithNilWriter(t *testing.T) {
	ep := newTestLogEndpoint(t)
	ep.SysEventRing.Push(gwstate.EventSample{Ev: gwmodel.EventCmd{Type: gwmodel.EventFlagRise, Seq: 3}})

	l := NewLog(ep, nil)
	l.drainAll(nil)

	require.Equal(t, 0, ep.SysEventRing.Len())
}
