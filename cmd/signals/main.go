package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"option_bot/internal/modules/signals"
)

// Утилита для проверки лент: показывает, какие сигналы канал отдаст боту
// прямо сейчас.
func main() {
	var (
		configPath = flag.String("channels", "configs/channels.yaml", "путь к конфигу каналов")
		channel    = flag.String("channel", "james_martin", "имя канала")
		offset     = flag.Duration("offset", 0, "сдвиг входа относительно сигнального времени")
	)
	flag.Parse()

	channels, err := signals.LoadChannels(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	ch, ok := channels[*channel]
	if !ok {
		log.Fatalf("канал %q не найден, доступны: %v", *channel, keys(channels))
	}

	src := signals.NewFileSource(ch, *offset, ch.MaxSignalAge())
	sigs, err := src.Load(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	if len(sigs) == 0 {
		fmt.Println("живых сигналов нет")
		return
	}
	now := time.Now()
	for _, s := range sigs {
		mark := " "
		if s.TradeAt.Before(now) {
			mark = "*" // время входа уже прошло
		}
		fmt.Printf("%s %-12s %-4s вход %s закрытие %s (%s)\n",
			mark, s.Asset, s.Direction,
			s.TradeAt.Format("15:04:05"), s.CloseAt.Format("15:04:05"), s.Channel)
	}
}

func keys(m map[string]signals.Channel) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
