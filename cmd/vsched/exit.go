package main

import (
	"errors"

	"github.com/urfave/cli"

	"vehicle-scheduling-service/internal/domain"
)

// Process exit codes. An infeasible solution is still a successful run.
// Usage errors exit with exitFailure; exitNotFound is for missing instance
// files only.
const (
	exitOK         = 0
	exitFailure    = 1
	exitNotFound   = 2
	exitMalformed  = 3
	exitUnsolvable = 4
)

func exitCode(err error) int {
	var (
		format *domain.FormatError
		fleet  *domain.FleetExhaustedError
		depot  *domain.DepotUnreachableError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrNotFound):
		return exitNotFound
	case errors.As(err, &format):
		return exitMalformed
	case errors.As(err, &fleet), errors.As(err, &depot):
		return exitUnsolvable
	default:
		return exitFailure
	}
}

func usageError(msg string) error {
	return cli.NewExitError(msg, exitFailure)
}

// exitError attaches the exit code for err so urfave/cli terminates with it.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	return cli.NewExitError(err.Error(), exitCode(err))
}
