//go:build !ios

package buildinfo

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// GetOSVersion returns OS version, kernel and bitness.  Either is ""
// if the host can't be asked.
func GetOSVersion() (osVersion, osKernel string) {
	info, err := host.Info()
	if err != nil {
		return "", ""
	}
	osVersion = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	osKernel = info.KernelVersion
	if info.KernelArch != "" {
		if strings.HasSuffix(info.KernelArch, "64") && osVersion != "" {
			osVersion += " (64 bit)"
		}
		if osKernel != "" {
			osKernel += " (" + info.KernelArch + ")"
		}
	}
	return osVersion, osKernel
}
