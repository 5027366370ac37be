package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/edward-ap/mcmplayer/internal/config"
	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
	"github.com/edward-ap/mcmplayer/internal/install"
	"github.com/edward-ap/mcmplayer/internal/logging"
	"github.com/edward-ap/mcmplayer/internal/player"
	"github.com/edward-ap/mcmplayer/internal/storage"
)

// NewEngine picks the audio backend named in cfg.
func NewEngine(cfg *config.Config) (player.Engine, error) {
	switch cfg.Engine {
	case config.EngineBeep:
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = 15 * time.Second
		client := &http.Client{Transport: tr}
		return player.NewBeepEngine(cfg.StreamURL, client, logging.For("beep")), nil
	case config.EngineVLC:
		return player.NewVLCEngine(cfg.StreamURL, logging.For("vlc")), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

// Build wires a session for cfg with the persistent settings file and the
// platform launcher source.
func Build(cfg *config.Config) (*Session, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	var kv storage.Store
	if path, err := config.StoragePath(); err == nil {
		kv = storage.NewFileStore(path)
	} else {
		log := logging.For("settings")
		log.Warn().Err(err).Msg("no config dir, custom preset kept in memory")
		kv = storage.NewMemoryStore()
	}
	store := eq.NewStore(kv, logging.For("settings"))
	graph := player.NewGraph(engine, logging.For("graph"))
	transport := player.NewTransport(graph, logging.For("transport"))
	installer := install.NewController(logging.For("install"))

	s := New(store, graph, transport, installer, Options{Log: logging.For("session")})
	if src, ok := install.NewLauncherSource(s.confirmInstall, logging.For("launcher")); ok {
		s.attachLauncher(src)
	}
	return s, nil
}
