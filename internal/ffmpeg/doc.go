// Package ffmpeg wraps the external ffmpeg/ffprobe binaries behind two
// narrow interfaces: Prober (stream info in one ffprobe round-trip) and
// FrameDecoder (one decoded frame piped over stdout). Availability is
// checked once per process so callers can disable video features entirely
// when the binaries are missing.
//
// Failures are classified into sentinel errors (ErrNoVideoStream,
// ErrUnsupportedCodec, ErrDecode, ErrUnavailable) so callers can pick
// different recovery paths per failure mode.
package ffmpeg
