package cli

import (
	"strings"

	"github.com/spf13/viper"
)

const defaultAPIBase = "http://127.0.0.1:8000"

// ResolveAPIBase picks the API base URL: the --api-base flag, then the
// APP_WEB_SOCKET environment variable, then the local default.
func ResolveAPIBase(flagValue string) string {
	v := viper.New()
	v.SetDefault("app_web_socket", defaultAPIBase)
	_ = v.BindEnv("app_web_socket", "APP_WEB_SOCKET")

	base := strings.TrimSpace(flagValue)
	if base == "" {
		base = strings.TrimSpace(v.GetString("app_web_socket"))
	}
	if base == "" {
		base = defaultAPIBase
	}
	return strings.TrimRight(base, "/")
}
