package logging

import "os"

func init() {
	level := LevelOff
	if v, ok := os.LookupEnv(EnvVar); ok && v != "" {
		level = ParseLevel(v)
	}
	SetLevel(level)
}
