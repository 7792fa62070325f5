package mqtt

import (
	"github.com/openadapt/telemetry/core/factory"
	"github.com/openadapt/telemetry/core/monitoring"
)

func init() {
	_ = monitoring.RegisterSink("mqtt", func(conf map[string]any) (monitoring.Sink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
