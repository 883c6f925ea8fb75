package media

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

var errTrackStopped = errors.New("track stopped")

// play feeds t from sources until the track stops or, without loop, the
// first source runs out. The track is ended either way.
func play(t *Track, open func() (sampleSource, error), first sampleSource, loop bool, logger zerolog.Logger) {
	defer t.end()

	src := first
	for {
		err := pump(t, src)
		_ = src.Close()
		if !errors.Is(err, io.EOF) {
			if !errors.Is(err, errTrackStopped) {
				logger.Error().Err(err).Msg("capture source failed")
			}
			return
		}
		if !loop {
			logger.Info().Msg("capture source finished")
			return
		}
		if src, err = open(); err != nil {
			logger.Error().Err(err).Msg("reopen capture source")
			return
		}
	}
}

func pump(t *Track, src sampleSource) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		sample, err := src.Next()
		if err != nil {
			return err
		}
		// Muted tracks keep their pace but send nothing.
		if t.Enabled() {
			if err := t.sample.WriteSample(sample); err != nil && !errors.Is(err, io.ErrClosedPipe) {
				return err
			}
		}
		timer.Reset(sample.Duration)
		select {
		case <-t.done:
			return errTrackStopped
		case <-timer.C:
		}
	}
}
