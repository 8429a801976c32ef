package srv

import (
	"context"

	"github.com/sandevgo/svim/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Group owns the resources opened while wiring a command and releases them in reverse order.
type Group struct {
	services []Service
}

func (g *Group) Add(s Service) {
	g.services = append(g.services, s)
}

func (g *Group) Start(ctx context.Context) error {
	for _, s := range g.services {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) Shutdown(ctx context.Context) {
	for i := len(g.services) - 1; i >= 0; i-- {
		if err := g.services[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", g.services[i])
		}
	}
	g.services = nil
}
