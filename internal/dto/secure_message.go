package dto

// SecureMessageReq is the plain form of a message request. The legacy shaped
// form (request envelope with candidate payload fields) is handled by the
// shaping layer before this struct is filled.
type SecureMessageReq struct {
	SessionID string `json:"sessionId"`
	Payload   string `json:"payload"`
}

// LegacyMessageReq carries a passphrase-path envelope; no session lookup.
type LegacyMessageReq struct {
	Payload string `json:"payload"`
}
