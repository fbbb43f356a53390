package ports

// ContainerInfo is what a container inspection learned about a video file.
type ContainerInfo struct {
	Format     string  // e.g. "mp4"
	VideoCodec string  // e.g. "h264", "hevc", "av1"
	Width      int     // 0 when unknown
	Height     int     // 0 when unknown
	Timescale  uint32  // Media timescale of the video track
	DurationS  float64 // Video track duration in seconds
	Fragmented bool
}

// ContainerProber inspects a video container without decoding it.
type ContainerProber interface {
	// Probe inspects the file at path.
	Probe(path string) (ContainerInfo, error)
}
