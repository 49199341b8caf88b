package validator

import "net"

// IPAddress accepts dotted IPv4 addresses, optionally embedded in a URL.
func IPAddress(candidate string) Result {
	host := HostOf(candidate)
	if host == "" {
		return reject(ReasonEmpty)
	}
	if !ipv4Regex.MatchString(host) {
		return reject(ReasonFormat)
	}
	if net.ParseIP(host).To4() == nil {
		return reject(ReasonFormat)
	}
	return ok(candidate)
}
