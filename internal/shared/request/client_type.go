package request

import "strings"

const (
	ClientTypeWeb    = "web"
	ClientTypeMobile = "mobile"
	ClientTypeAPI    = "api"
)

// ResolveClientType decides how tokens should be delivered: web clients get
// cookies, everyone else gets them in the response body only.
func ResolveClientType(clientHeader, userAgent string) string {
	switch strings.ToLower(strings.TrimSpace(clientHeader)) {
	case ClientTypeWeb:
		return ClientTypeWeb
	case ClientTypeMobile:
		return ClientTypeMobile
	case ClientTypeAPI:
		return ClientTypeAPI
	}

	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "mozilla") || strings.Contains(ua, "chrome") || strings.Contains(ua, "safari") {
		return ClientTypeWeb
	}
	return ClientTypeAPI
}

func IsWebClient(clientType string) bool {
	return clientType == ClientTypeWeb
}
