package ch

import (
	"os"
	"runtime"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"timejar/internal/core/version"
)

// BuildClientInfo names this binary in system.query_log.
// role is the module doing the writing, e.g. "merge"
func BuildClientInfo(role string, b version.BuildInfo) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	service := strings.TrimSpace(b.Service)
	if service == "" {
		service = "timejar"
	}
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{Name: service, Version: b.Version},
		{Name: "role", Version: strings.TrimSpace(role)},
		{Name: "commit", Version: b.Commit},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: host},
	}}
}
