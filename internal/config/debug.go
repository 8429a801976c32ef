package config

import "os"

func IsDebug() bool {
	return os.Getenv("SVIM_DEBUG") == "1" || os.Getenv("SVIM_DEBUG") == "true"
}
