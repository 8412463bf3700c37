package authapi

import (
	"net"
	"net/http"
	"strings"

	"liftlog/cmd/internal/auth/flow"
)

func toUserInfoResponse(info flow.AgentInfo) userInfoResponse {
	if info.User != nil {
		return userInfoResponse{
			Type:     agentTypeUser,
			OwnerID:  info.OwnerID,
			UserID:   info.User.ID,
			Username: info.User.Username,
		}
	}
	return userInfoResponse{
		Type:      agentTypeAnonymous,
		OwnerID:   info.OwnerID,
		ExpiresAt: info.ExpiresAt,
	}
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
