package api

import (
	"fmt"
	"net"
	"strings"

	"github.com/labstack/echo/v4"
)

// NewIPExtractor decides which address the login throttle and the audit trail
// see as the request source. With no trusted proxies the socket peer is used
// and X-Forwarded-For is ignored. Otherwise the header is walked from the
// right and only hops inside trustedProxies are skipped; loopback and private
// ranges are not trusted implicitly.
func NewIPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, raw := range trustedProxies {
		ipNet, err := parseProxyRange(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// parseProxyRange accepts a CIDR or a single address.
func parseProxyRange(raw string) (*net.IPNet, error) {
	raw = strings.TrimSpace(raw)
	if _, ipNet, err := net.ParseCIDR(raw); err == nil {
		return ipNet, nil
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return nil, fmt.Errorf("trusted proxy %q is neither an IP nor a CIDR", raw)
	}
	bits := 128
	if ip.To4() != nil {
		ip = ip.To4()
		bits = 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}
