package signals

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Channel — описание сигнального канала из configs/channels.yaml:
// откуда брать CSV, какой длительности опционы он даёт и сколько живёт сигнал.
type Channel struct {
	Name     string
	Dir      string `mapstructure:"dir"`
	Pattern  string `mapstructure:"pattern"` // имя файла с плейсхолдером {date} (YYYYMMDD)
	Duration int    `mapstructure:"duration"`
	MaxAge   int    `mapstructure:"max_age"`
}

func (c Channel) TradeDuration() time.Duration { return time.Duration(c.Duration) * time.Second }

func (c Channel) MaxSignalAge() time.Duration {
	if c.MaxAge <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.MaxAge) * time.Second
}

// LoadChannels читает карту каналов. Ключ карты — имя канала.
func LoadChannels(path string) (map[string]Channel, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("channels: read %s: %w", path, err)
	}

	var channels map[string]Channel
	if err := v.UnmarshalKey("channels", &channels); err != nil {
		return nil, fmt.Errorf("channels: decode: %w", err)
	}
	for name, ch := range channels {
		ch.Name = name
		if ch.Duration <= 0 {
			return nil, fmt.Errorf("channels: %s: duration must be > 0", name)
		}
		if ch.Pattern == "" {
			return nil, fmt.Errorf("channels: %s: pattern is required", name)
		}
		channels[name] = ch
	}
	return channels, nil
}
