package signalr

// pendingTable is the Pending-Invocation Table (spec §3): invocation-id
// string to completion sink. It carries no lock of its own; every method
// must be called with the owning hubConnection's single coarse mutex held,
// per spec §4.6 ("handler table, pending-invocation table, state variable...
// are all mutated under one coarse mutex").
type pendingTable map[string]*completionSink

func newPendingTable() pendingTable {
	return make(pendingTable)
}

// register inserts a fresh sink for id, invariant to spec §3: "An invocation
// id is present in the pending table iff exactly one caller is awaiting its
// completion."
func (t pendingTable) register(id string) *completionSink {
	sink := newCompletionSink()
	t[id] = sink
	return sink
}

// complete looks the sink for id up and removes it, settling it with result.
// It reports whether id was found, so the caller can log an orphan
// completion (spec §4.4 "Orphan completion") when it wasn't.
func (t pendingTable) complete(id string, result InvokeResult) bool {
	sink, ok := t[id]
	if !ok {
		return false
	}
	delete(t, id)
	sink.settle(result)
	return true
}

// failAll settles every outstanding entry with err and empties the table,
// per spec §4.3 stop() and §4.6's Disconnected-transition rule.
func (t pendingTable) failAll(err error) {
	for id, sink := range t {
		delete(t, id)
		sink.settle(InvokeResult{Error: err})
	}
}
