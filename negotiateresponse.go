package signalr

// TransportType names a transport a server or client can use, as carried in
// a Direct negotiation response's availableTransports (spec §3).
type TransportType string

const (
	TransportWebSockets       TransportType = "WebSockets"
	TransportServerSentEvents TransportType = "ServerSentEvents"
)

// TransferFormatType is the payload encoding a transport carries. This
// client only ever requests TransferFormatText (JSON); TransferFormatBinary
// exists so availableTransports can be parsed and logged faithfully.
type TransferFormatType string

const (
	TransferFormatText   TransferFormatType = "Text"
	TransferFormatBinary TransferFormatType = "Binary"
)

type availableTransport struct {
	Transport       string   `json:"transport"`
	TransferFormats []string `json:"transferFormats"`
}

// rawNegotiateResponse is the wire shape of a negotiate POST's body. It is a
// superset of the three variants defined in spec §3, disambiguated by
// classifyNegotiateResponse().
type rawNegotiateResponse struct {
	Error               string               `json:"error,omitempty"`
	URL                 string               `json:"url,omitempty"`
	AccessToken         string               `json:"accessToken,omitempty"`
	ConnectionID        string               `json:"connectionId,omitempty"`
	ConnectionToken     string               `json:"connectionToken,omitempty"`
	NegotiateVersion    int                  `json:"negotiateVersion,omitempty"`
	AvailableTransports []availableTransport `json:"availableTransports,omitempty"`
}

// negotiateKind tags which of the two negotiateResponse variants (Direct or
// Redirect) a rawNegotiateResponse turned out to be (spec §3 "Negotiation
// Response"); an error response is returned as an error instead.
type negotiateKind int

const (
	negotiateDirect negotiateKind = iota
	negotiateRedirect
)

// negotiateResponse is the classified result of negotiate() (spec §4.2).
type negotiateResponse struct {
	kind                negotiateKind
	connectionID        string
	availableTransports []availableTransport
	redirectURL         string
	redirectAccessToken string
}

// classifyNegotiateResponse applies the ordered rules of spec §4.2: error field wins, then
// redirect shape (url+accessToken), then direct shape (connectionId), and
// anything else is malformed.
func classifyNegotiateResponse(raw *rawNegotiateResponse, body string) (*negotiateResponse, error) {
	switch {
	case raw.Error != "":
		return nil, &NegotiationFailedError{Msg: raw.Error}
	case raw.URL != "" && raw.AccessToken != "":
		return &negotiateResponse{
			kind:                negotiateRedirect,
			redirectURL:         raw.URL,
			redirectAccessToken: raw.AccessToken,
		}, nil
	case raw.ConnectionID != "":
		return &negotiateResponse{
			kind:                negotiateDirect,
			connectionID:        raw.ConnectionID,
			availableTransports: raw.AvailableTransports,
		}, nil
	default:
		return nil, &MalformedNegotiationResponseError{Body: body}
	}
}

func (nr *negotiateResponse) hasTransport(transportType TransportType) bool {
	for _, transport := range nr.availableTransports {
		if transport.Transport == string(transportType) {
			return true
		}
	}
	return false
}
