package loader

import "os"

// envLookup is the desc.EnvLookup backing LoadDescription's env resolution
// step (§4.1 "process.env." substitution, §6).
func envLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}
