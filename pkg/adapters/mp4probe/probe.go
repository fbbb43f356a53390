// Package mp4probe inspects MP4/MOV containers with mp4ff before any process is spawned.
package mp4probe

import (
	"errors"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/keyframes/pkg/ports"
)

// ErrNotMP4 is returned for inputs that are not ISO-BMFF files.
// Such inputs are still valid for ffprobe; callers treat this as informational.
var ErrNotMP4 = errors.New("mp4probe: not an mp4 container")

// Codec names reported in ports.ContainerInfo.
const (
	CodecH264    = "h264"
	CodecHEVC    = "hevc"
	CodecAV1     = "av1"
	CodecVP9     = "vp9"
	CodecMPEG4   = "mpeg4"
	CodecUnknown = "unknown"
)

// Prober implements ports.ContainerProber for MP4 files.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe reads the moov box of the file at path. Media data is not loaded.
func (p *Prober) Probe(path string) (ports.ContainerInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.ContainerInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return ports.ContainerInfo{}, fmt.Errorf("%w: %v", ErrNotMP4, err)
	}

	moov := mp4File.Moov
	if moov == nil && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return ports.ContainerInfo{}, fmt.Errorf("%w: no moov box", ErrNotMP4)
	}

	info := ports.ContainerInfo{
		Format:     "mp4",
		VideoCodec: CodecUnknown,
		Fragmented: mp4File.IsFragmented(),
	}

	for _, trak := range moov.Traks {
		if !isVideoTrack(trak) {
			continue
		}
		info.VideoCodec = codecFromTrack(trak)
		if trak.Tkhd != nil {
			info.Width = int(uint32(trak.Tkhd.Width) >> 16)
			info.Height = int(uint32(trak.Tkhd.Height) >> 16)
		}
		if mdhd := trak.Mdia.Mdhd; mdhd != nil {
			info.Timescale = mdhd.Timescale
			if mdhd.Timescale > 0 {
				info.DurationS = float64(mdhd.Duration) / float64(mdhd.Timescale)
			}
		}
		return info, nil
	}

	return info, fmt.Errorf("no video track found")
}

func isVideoTrack(trak *mp4.TrakBox) bool {
	return trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide"
}

func codecFromTrack(trak *mp4.TrakBox) string {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if codec := CodecForSampleEntry(child.Type()); codec != CodecUnknown {
			return codec
		}
	}
	return CodecUnknown
}

// CodecForSampleEntry maps a sample entry box type to a codec name.
func CodecForSampleEntry(boxType string) string {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	case "mp4v":
		return CodecMPEG4
	default:
		return CodecUnknown
	}
}

// Ensure Prober implements ports.ContainerProber
var _ ports.ContainerProber = (*Prober)(nil)
