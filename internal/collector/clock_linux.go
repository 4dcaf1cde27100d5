//go:build linux

package collector

import "github.com/tklauser/go-sysconf"

func init() {
	if sc, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && sc > 0 {
		clkTck = sc
	}
}
