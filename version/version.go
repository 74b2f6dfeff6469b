package version

import "soc_dvfs/util"

var (
	Version    = "0.3"
	GitHash    = "devXXXX"
	BuildTS    = "2024-05-02T10:00:00Z" // to be replaced at build time
	APIVersion = "1.0"
	Branch     = "main"
	Agent      = "dvfsd/" + Version
)

type VersionConfig struct {
	Version    string  `json:"Version"`
	GitHash    string  `json:"GitHash"`
	BuildTS    string  `json:"BuildTS"`
	APIVersion string  `json:"APIVersion"`
	Agent      string  `json:"Agent"`
	Branch     string  `json:"Branch"`
	Board      string  `json:"Board,omitempty"`
	Uptime     float64 `json:"Uptime"`
}

// GetVersionConfig reports the build and the board being served.
func GetVersionConfig(board string) VersionConfig {
	return VersionConfig{
		Version:    Version,
		GitHash:    GitHash,
		BuildTS:    BuildTS,
		APIVersion: APIVersion,
		Agent:      Agent,
		Branch:     Branch,
		Board:      board,
		Uptime:     util.SystemUptimeInSec(),
	}
}
