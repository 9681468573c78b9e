package signals

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"option_bot/internal/models"
	"option_bot/pkg/logger"
)

// FileSource читает ленту одного канала с диска. Файл выбирается по дате:
// сегодняшний в приоритете, иначе последний по имени из подходящих под
// паттерн. Смена даты переоткрывает выбор.
type FileSource struct {
	ch     Channel
	offset time.Duration
	maxAge time.Duration

	mu          sync.Mutex
	resolvedDay string
	path        string

	now func() time.Time
}

func NewFileSource(ch Channel, offset, maxAge time.Duration) *FileSource {
	if maxAge <= 0 {
		maxAge = ch.MaxSignalAge()
	}
	return &FileSource{
		ch:     ch,
		offset: offset,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// resolve находит файл ленты на день day.
func (s *FileSource) resolve(day time.Time) (string, error) {
	dayKey := day.Format("20060102")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolvedDay == dayKey && s.path != "" {
		return s.path, nil
	}

	todays := filepath.Join(s.ch.Dir, strings.ReplaceAll(s.ch.Pattern, "{date}", dayKey))
	if _, err := os.Stat(todays); err == nil {
		s.resolvedDay, s.path = dayKey, todays
		return todays, nil
	}

	// сегодняшнего нет — берём последний по имени (даты в имени сортируются
	// лексикографически)
	glob := filepath.Join(s.ch.Dir, strings.ReplaceAll(s.ch.Pattern, "{date}", "*"))
	matches, err := filepath.Glob(glob)
	if err != nil {
		return "", errors.Wrap(err, "glob signal files")
	}
	if len(matches) == 0 {
		return "", errors.Errorf("no signal files for channel %s (%s)", s.ch.Name, glob)
	}
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	logger.Info("signals: %s: сегодняшнего файла нет, берём %s", s.ch.Name, latest)
	s.resolvedDay, s.path = dayKey, latest
	return latest, nil
}

// Load перечитывает файл канала и отдаёт только живые сигналы: не старше
// maxAge и не «вчерашние».
func (s *FileSource) Load(ctx context.Context) ([]models.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	path, err := s.resolve(now)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open signal file")
	}
	defer func() {
		_ = f.Close()
	}()

	all, err := ParseCSV(f, s.ch, now, s.offset)
	if err != nil {
		return nil, err
	}

	fresh := all[:0]
	for _, sig := range all {
		if now.Sub(sig.TradeAt) > s.maxAge {
			continue
		}
		fresh = append(fresh, sig)
	}
	return fresh, nil
}
