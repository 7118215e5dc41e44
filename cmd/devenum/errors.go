package main

import (
	"errors"
	"fmt"

	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/script"
)

// FormatUserError turns an error returned by a command into a message for the terminal
func FormatUserError(err error) string {
	var (
		notFound *device.NotFoundError
		luaErr   *script.LuaError
	)

	switch {
	case errors.As(err, &notFound) && notFound.Resource == "category":
		return fmt.Sprintf("unknown category %q; run 'devenum categories' to see the known ones", notFound.Selector)
	case errors.As(err, &notFound) && notFound.Selector == "":
		return "no devices found"
	case errors.As(err, &notFound):
		return fmt.Sprintf("no device matches %q; run 'devenum list' to see the available devices", notFound.Selector)
	case errors.As(err, &luaErr):
		return fmt.Sprintf("filter script: %s", luaErr)
	case errors.Is(err, device.ErrEnumerationUnavailable):
		return fmt.Sprintf("device enumeration is unavailable on this system (%s)", err)
	case errors.Is(err, device.ErrPullFailed):
		return fmt.Sprintf("device enumeration failed part way; no devices were kept (%s)", err)
	}
	return err.Error()
}
