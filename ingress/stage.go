package ingress

import (
	"context"

	"github.com/FerroO2000/ringq/internal"
	"github.com/FerroO2000/ringq/internal/config"
)

type source[Out msgEnv] interface {
	setTelemetry(tel *internal.Telemetry)
	run(ctx context.Context, outConn msgConn[Out])
}

type stage[Out msgEnv, Cfg config.Config] struct {
	tel *internal.Telemetry

	cfg Cfg

	source source[Out]

	outputConnector msgConn[Out]
}

func newStage[Out msgEnv, Cfg config.Config](name string, source source[Out], outConn msgConn[Out], cfg Cfg) *stage[Out, Cfg] {
	tel := internal.NewTelemetry("ingress", name)
	source.setTelemetry(tel)

	return &stage[Out, Cfg]{
		tel: tel,

		cfg: cfg,

		source: source,

		outputConnector: outConn,
	}
}

func (s *stage[Out, Cfg]) Init(_ context.Context) error {
	s.tel.LogInfo("initializing")

	validator := config.NewValidator(s.tel)
	validator.Validate(s.cfg)

	return nil
}

func (s *stage[Out, Cfg]) Run(ctx context.Context) {
	s.tel.LogInfo("running")

	s.source.run(ctx, s.outputConnector)
}

func (s *stage[Out, Cfg]) Close() {
	s.tel.LogInfo("closing")

	// Close the output connector
	s.outputConnector.Close()

	s.tel.UnregisterMetrics()
}
