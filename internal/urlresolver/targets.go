package urlresolver

import (
	"time"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/mediaserver"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
)

// ServerTarget describes the media server in cfg.
func ServerTarget(cfg config.ServerConfig, timeout time.Duration) Target {
	return Target{
		Kind:      TargetServer,
		LocalURL:  cfg.LocalURL,
		PublicURL: cfg.URL,
		ProbePath: mediaserver.ProbePath,
		Timeout:   timeout,
	}
}

// JellyseerrTarget describes the recommendation service in cfg.
func JellyseerrTarget(cfg config.RecommendationConfig, timeout time.Duration) Target {
	return Target{
		Kind:      TargetJellyseerr,
		LocalURL:  cfg.LocalURL,
		PublicURL: cfg.URL,
		ProbePath: seerr.StatusPath,
		Timeout:   timeout,
	}
}

// TargetFor picks the target of kind out of a snapshot.
func TargetFor(snap config.Snapshot, kind TargetKind, timeout time.Duration) Target {
	if kind == TargetJellyseerr {
		return JellyseerrTarget(snap.Jellyseerr, timeout)
	}
	return ServerTarget(snap.Server, timeout)
}
