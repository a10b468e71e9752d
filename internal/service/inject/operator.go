package inject

import (
	"fmt"
	"os"
	"os/user"
)

// DetectOperator identifies the person injecting indications as user@host
// for the manager's audit log.
func DetectOperator() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}

	return currentUser.Username + "@" + hostname, nil
}
