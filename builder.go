package signalr

// HubConnectionBuilder accumulates options before Build assembles a
// HubConnection, grounded on the reference client's func(Party) error
// option composition in NewClient, adapted to a dedicated builder type so a
// HubConnection itself stays free of unexported configuration plumbing.
type HubConnectionBuilder struct {
	baseURL  string
	rawQuery string
	cfg      connectionConfig
	err      error
}

// NewHubConnectionBuilder starts building a HubConnection against the given
// endpoint. rawQuery (without a leading '?') is appended to every negotiate
// and transport URL, per spec §4.1.
func NewHubConnectionBuilder(baseURL string, rawQuery string, opts ...option) *HubConnectionBuilder {
	b := &HubConnectionBuilder{
		baseURL:  baseURL,
		rawQuery: rawQuery,
		cfg:      defaultConnectionConfig(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(b); err != nil && b.err == nil {
			b.err = err
		}
	}
	return b
}

// Build validates the accumulated options and returns a HubConnection in
// state Disconnected, ready for Start.
func (b *HubConnectionBuilder) Build() (*HubConnection, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.cfg.transports) == 0 {
		b.cfg.transports = []TransportType{TransportWebSockets, TransportServerSentEvents}
	}
	return newHubConnection(b.baseURL, b.rawQuery, b.cfg), nil
}
