package domain

// Store is one physical store as returned by the stores directory endpoint.
type Store struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CityKey string `json:"cityKey"`
}

// Session carries the device identity and server-issued session token that
// scope every signed request. It is created once by the caller and passed
// explicitly; there is no global session state.
type Session struct {
	DeviceID string
	Token    string
}
