/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer  = "api_server"
	DigestCron = "digest_cron"
)

var (
	IsDevelopment bool
	ServiceName   string
	ByPassAuth    bool
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "'api_server' or 'digest_cron'")
	flag.BoolVar(&ByPassAuth, "no_auth", false, "skip identity provider validation, local development only")
}

// Parse reads the command line into the shared flags. Only binary
// entry points call it; parsing at import time would clash with
// flags other packages register later.
func Parse() {
	flag.Parse()
}
