package media

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pion/webrtc/v4"
	pmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

const (
	opusClockRate = 48000
	oggPageTime   = 20 * time.Millisecond
)

type sampleSource interface {
	Next() (pmedia.Sample, error)
	io.Closer
}

type ivfSource struct {
	file  *os.File
	r     *ivfreader.IVFReader
	frame time.Duration
}

func openIVF(path string) (*ivfSource, *ivfreader.IVFFileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r, header, err := ivfreader.NewWith(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	frame := 33 * time.Millisecond
	if header.TimebaseDenominator > 0 && header.TimebaseNumerator > 0 {
		frame = time.Duration(float64(header.TimebaseNumerator) / float64(header.TimebaseDenominator) * float64(time.Second))
	}
	return &ivfSource{file: f, r: r, frame: frame}, header, nil
}

func (s *ivfSource) Next() (pmedia.Sample, error) {
	frame, _, err := s.r.ParseNextFrame()
	if err != nil {
		return pmedia.Sample{}, err
	}
	return pmedia.Sample{Data: frame, Duration: s.frame}, nil
}

func (s *ivfSource) Close() error { return s.file.Close() }

// videoCodec maps an IVF FourCC to the codec it carries.
func videoCodec(fourcc string) (webrtc.RTPCodecCapability, error) {
	switch fourcc {
	case "VP80":
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, nil
	case "VP90":
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP9}, nil
	case "AV01":
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeAV1}, nil
	}
	return webrtc.RTPCodecCapability{}, fmt.Errorf("unsupported ivf codec %q", fourcc)
}

type oggSource struct {
	file *os.File
	r    *oggreader.OggReader
	last uint64
}

func openOgg(path string) (*oggSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, _, err := oggreader.NewWith(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &oggSource{file: f, r: r}, nil
}

func (s *oggSource) Next() (pmedia.Sample, error) {
	page, header, err := s.r.ParseNextPage()
	if err != nil {
		return pmedia.Sample{}, err
	}
	d := oggPageTime
	if header.GranulePosition > s.last {
		d = time.Duration(header.GranulePosition-s.last) * time.Second / opusClockRate
	}
	s.last = header.GranulePosition
	return pmedia.Sample{Data: page, Duration: d}, nil
}

func (s *oggSource) Close() error { return s.file.Close() }
