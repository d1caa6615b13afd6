package config

import (
	"fmt"
	"os"
	"os/user"
)

// Account describes the invoking user and host. It is looked up once per
// run and passed explicitly to everything that needs it. Gecos is the
// full-name field only: os/user drops the subfields after the first comma.
type Account struct {
	Login    string `validate:"required"`
	UID      string `validate:"required"`
	Gecos    string
	Home     string `validate:"required,abspath"`
	Hostname string
}

// CurrentAccount looks up the account of the process's real user.
func CurrentAccount() (Account, error) {
	u, err := user.Current()
	if err != nil {
		return Account{}, fmt.Errorf("failed to look up current user: %w", err)
	}

	// $HOME wins over the password database, matching the shell's view
	// of relative share paths.
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = u.HomeDir
	}

	host, err := os.Hostname()
	if err != nil {
		return Account{}, fmt.Errorf("failed to determine host name: %w", err)
	}

	return Account{
		Login:    u.Username,
		UID:      u.Uid,
		Gecos:    u.Name,
		Home:     home,
		Hostname: host,
	}, nil
}
