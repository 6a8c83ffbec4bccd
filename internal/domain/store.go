package domain

// ============================================================
// Session store keys / signals
// ============================================================

// Keys of the shared session store. No schema versioning; a missing key
// means "not yet known".
const (
	StoreKeyAuthToken    = "authToken"
	StoreKeyCustomer     = "customerData"
	StoreKeyAreas        = "availableAreas"
	StoreKeySelectedArea = "selectedArea"
	// StoreKeyLegacyCustomerID is the old standalone id key, still written by
	// older clients. Read as a fallback when the structured customer payload
	// is absent.
	StoreKeyLegacyCustomerID = "customerId"
)

// StoreSignal is a cross-tab mutation notification. Key names the mutated
// key and Origin identifies the context that wrote it, so a context can skip
// its own writes the way browser storage events do. Consumers must not
// filter on Key: any foreign signal triggers a full re-derivation.
type StoreSignal struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}
