package deps

import (
	"time"

	"github.com/launchpane/querybox/internal/chat"
	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/suggest"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time   // for testing, defaults to time.Now
	RedisClient   *redis.Client      // Redis client connection
	MemoryIndex   *index.Memory      // in-memory suggestion state
	Engine        *suggest.Engine    // suggestion engine
	Sessions      *chat.Store        // chat session store
	Orchestrator  *chat.Orchestrator // AI response orchestrator (nil = chat disabled)
	RemoteWait    time.Duration      // how long /suggest waits for the remote merge
	ReloadTrigger chan struct{}      // channel to trigger manual curated reload
}
