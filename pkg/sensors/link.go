package sensors

import (
	gnet "github.com/shirou/gopsutil/v4/net"
)

// NetLink samples the kernel's interface table: the link is up when any
// non-loopback interface is up and has an address.
type NetLink struct{}

// Up reports whether a usable interface exists right now.
func (NetLink) Up() bool {
	ifaces, err := gnet.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		var up, loopback bool
		for _, f := range iface.Flags {
			switch f {
			case "up":
				up = true
			case "loopback":
				loopback = true
			}
		}
		if up && !loopback && len(iface.Addrs) > 0 {
			return true
		}
	}
	return false
}
