package platform

import (
	"context"
	"time"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/debounce"
)

// New opens the vault at uri and returns a Service with its notes loaded.
//
//	svc, err := jot.New("./notes", jot.WithAdapter("sqlite"))
func New(uri string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ctx := context.Background()
	repo, err := initRepository(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	config := core.ServiceConfig{Logger: o.logger}
	config.Debounce, _ = o.config["debounce"].(time.Duration)
	config.Clock, _ = o.config["clock"].(debounce.Clock)
	config.Now, _ = o.config["now"].(func() time.Time)
	config.NewID, _ = o.config["new_id"].(func() string)
	config.ErrorHandler, _ = o.config["error_handler"].(func(error))
	config.EventBuffer, _ = o.config["event_buffer"].(int)

	service := core.NewService(repo, config)
	if err := service.Load(ctx); err != nil {
		_ = service.Close()
		return nil, err
	}
	return service, nil
}
