package mcmapp

import "github.com/edward-ap/mcmplayer/internal/player"

// SetTraceLogEnabled toggles verbose libVLC logging. Call this before the
// session first starts playback so the VLC engine sees the flag.
func SetTraceLogEnabled(b bool) { player.SetTraceLoggingEnabled(b) }
