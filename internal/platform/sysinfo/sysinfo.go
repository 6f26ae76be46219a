package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// SysInfo describes the machine an experiment ran on.
type SysInfo struct {
	Platform string `json:"platform"`
	CPU      string `json:"cpu"`
	Cores    int    `json:"cores"`
	RAM      string `json:"ram"`
}

// Collect never fails: fields that cannot be read are reported as "unknown".
func Collect() SysInfo {
	info := SysInfo{Platform: "unknown", CPU: "unknown", RAM: "unknown", Cores: runtime.NumCPU()}

	if h, err := host.Info(); err == nil && h.Platform != "" {
		info.Platform = h.Platform
	}
	if c, err := cpu.Info(); err == nil && len(c) > 0 {
		info.CPU = c[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vm.Total/1024/1024/1024)
	}
	return info
}

func (s SysInfo) String() string {
	return fmt.Sprintf("%s, %s (%d cores), %s", s.Platform, s.CPU, s.Cores, s.RAM)
}
