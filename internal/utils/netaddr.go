package utils

import "net"

// LocalIP returns the first non-loopback interface address, or nil when the
// host has none. Discovery advertises this as a fallback only; peers trust
// the UDP source address over anything self-reported.
func LocalIP() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}
