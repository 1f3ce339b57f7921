// Package credentials gates the install on the presence of the .env file the
// bot reads its Matchbook login from. The gate is an existence check only;
// the file's contents belong to the bot, not the installer.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissing is returned when the credentials file does not exist. Callers
// map it to the dedicated precondition exit status.
var ErrMissing = errors.New("credentials file not found")

// RequiredKeys are the variables the bot refuses to start without.
var RequiredKeys = []string{"MATCHBOOK_USERNAME", "MATCHBOOK_PASSWORD"}

// Check verifies the credentials file exists at path. It never opens the
// file.
func Check(path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissing, path)
	}
	if err != nil {
		return fmt.Errorf("stat credentials file: %w", err)
	}
	return nil
}

// Remediation returns the operator instructions printed when the gate fails.
func Remediation(path string) string {
	return fmt.Sprintf(`Credentials file %s not found.

Create it before installing:

  cp .env.example .env
  nano .env   # set MATCHBOOK_USERNAME and MATCHBOOK_PASSWORD

Then re-run the installer.
`, path)
}

// Inspect parses the credentials file and reports required keys that are
// missing or empty. Used by the doctor preflight only; the install itself
// never looks inside the file.
func Inspect(path string) ([]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	var warnings []string
	for _, key := range RequiredKeys {
		if values[key] == "" {
			warnings = append(warnings, fmt.Sprintf("%s is not set in %s", key, path))
		}
	}
	return warnings, nil
}
