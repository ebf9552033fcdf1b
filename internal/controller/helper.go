package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/xid"
)

func (c controller) generateTimeBasedId() string {
	return xid.New().String()
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func (c controller) bearerToken(r *http.Request) string {
	const prefix = "Bearer "

	header := r.Header.Get("Authorization")
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

func (c controller) clientIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
