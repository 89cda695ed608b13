package configuration

import (
	"bufio"
	"os"
	"strings"

	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
)

// LoadEnvFromFile loads KEY=VALUE pairs from the given files. Variables that
// are already set in the process environment win. It returns the number of
// variables set.
func LoadEnvFromFile(paths ...string) int {
	loaded := 0
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			line = strings.TrimPrefix(line, "export ")
			key, val, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			val = strings.Trim(strings.TrimSpace(val), "\"'")
			if key == "" {
				continue
			}
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
				loaded++
			}
		}
		_ = f.Close()
		logger.GetLogger().WithField("file", p).Debug("Loaded environment file")
	}
	return loaded
}
