package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"option_bot/internal/modules/broker"
	"option_bot/internal/modules/config"
	"option_bot/internal/modules/health/service"
	"option_bot/internal/trader"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	if cfg.Service.AdminPort != 0 {
		return Config{Addr: fmt.Sprintf(":%d", cfg.Service.AdminPort)}
	}
	return Config{Addr: ":8080"}
}

// SessionInfo — срез торговой сессии для healthz.
type SessionInfo interface {
	State() string
	Profit() float64
	LastScan() time.Time
}

// WSStatus — состояние соединения с площадкой.
type WSStatus interface {
	Connected() bool
}

func NewMux(state *service.State, sess SessionInfo, ws WSStatus) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: брокер подключён и цикл сессии запущен
		if !state.Ready() || !ws.Connected() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"ready":        state.Ready(),
			"wsConnected":  ws.Connected(),
			"sessionState": sess.State(),
			"profit":       sess.Profit(),
			"uptimeSec":    int64(state.Uptime().Seconds()),
			"lastScanUnix": func() int64 {
				t := sess.LastScan()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, state *service.State) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			state.SetReady(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			func(s *trader.Session) SessionInfo { return s },
			func(c *broker.Client) WSStatus { return c },
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
