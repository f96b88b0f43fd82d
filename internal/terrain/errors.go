package terrain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports terrain options that cannot be built. Errors
	// from lod and chunk validation are wrapped so both sentinels match.
	ErrConfiguration = errors.New("terrain configuration error")
	// ErrNotReady is returned by frame operations outside the Ready state.
	ErrNotReady = errors.New("terrain: not ready")
	// ErrFrameOrder is returned when a pass begins before Update.
	ErrFrameOrder = errors.New("terrain: update must precede draw")
)

func configError(err error) error {
	if errors.Is(err, ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}
