package observability

import (
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"

	"vod-service/pkg/logger"
)

// StartProfiling 在设置了 PYROSCOPE_SERVER_ADDRESS 时开启持续性能剖析，返回停止函数
func StartProfiling(appName string) func() {
	addr := strings.TrimSpace(os.Getenv("PYROSCOPE_SERVER_ADDRESS"))
	if addr == "" {
		return func() {}
	}
	return StartProfilingWith(appName, addr)
}

// StartProfilingWith 使用显式地址开启剖析
func StartProfilingWith(appName, serverAddress string) func() {
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   serverAddress,
		Tags:            map[string]string{"hostname": hostname()},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("pyroscope start failed server=%s error=%v", serverAddress, err)
		return func() {}
	}
	logger.Infof("pyroscope profiling enabled app=%s server=%s", appName, serverAddress)
	return func() {
		if err := profiler.Stop(); err != nil {
			logger.Warnf("pyroscope stop failed error=%v", err)
		}
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
