package dto

type HandshakeReq struct {
	ClientPublicKey string `json:"clientPublicKey" binding:"required,base64"`
}

type HandshakeResp struct {
	ServerPublicKey string `json:"serverPublicKey"`
	SessionID       string `json:"sessionId"`
}
