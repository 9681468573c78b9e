package signals

import (
	"fmt"
	"time"

	"go.uber.org/fx"

	"option_bot/internal/modules/config"
)

const channelsConfigPath = "configs/channels.yaml"

// Module собирает FileSource для канала из конфига.
func Module() fx.Option {
	return fx.Module("signals",
		fx.Provide(
			func(cfg *config.Config) (*FileSource, error) {
				channels, err := LoadChannels(channelsConfigPath)
				if err != nil {
					return nil, err
				}
				ch, ok := channels[cfg.Trading.Channel]
				if !ok {
					return nil, fmt.Errorf("signals: unknown channel %q", cfg.Trading.Channel)
				}
				offset := time.Duration(cfg.Trading.OffsetSeconds) * time.Second
				return NewFileSource(ch, offset, cfg.Trading.MaxSignalAge), nil
			},
		),
	)
}
