package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytdigest/internal/app"
	"github.com/anatolykoptev/go_ytdigest/internal/digest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP digest trigger",
	Long: `Serve GET / (hello), GET /v1/ping (health check) and
GET /youtube_summary_handle, which starts a digest in the background and
answers immediately. Query parameters mirror the run flags: start, end,
language, max_per_channel, output_path, title, skip_llm, skip_notion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		h := &triggerHandler{run: a.Runner.Run}
		e := newServer(h)

		go func() {
			slog.Info("ytdigest: http server starting", slog.String("addr", cfg.HTTPAddr))
			if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ytdigest: http server failed", slog.Any("error", err))
			}
		}()

		<-cmd.Context().Done()
		slog.Info("ytdigest: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("ytdigest: forced shutdown", slog.Any("error", err))
		}
		h.wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type runFunc func(ctx context.Context, opts digest.Options) (digest.Result, error)

// triggerHandler starts digests in the background.
type triggerHandler struct {
	run runFunc
	wg  sync.WaitGroup
}

func newServer(h *triggerHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Hello from ytdigest"})
	})
	e.GET("/v1/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/youtube_summary_handle", h.handle)
	return e
}

func (h *triggerHandler) handle(c echo.Context) error {
	var opts digest.Options
	var skipGemini bool
	err := echo.QueryParamsBinder(c).
		String("start", &opts.Start).
		String("end", &opts.End).
		String("language", &opts.Language).
		Int("max_per_channel", &opts.MaxPerChannel).
		String("output_path", &opts.OutputPath).
		String("title", &opts.Title).
		Bool("skip_llm", &opts.SkipLLM).
		Bool("skip_gemini", &skipGemini).
		Bool("skip_notion", &opts.SkipNotion).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	opts.SkipLLM = opts.SkipLLM || skipGemini

	ctx := context.WithoutCancel(c.Request().Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		res, err := h.run(ctx, opts)
		if err != nil {
			slog.Error("ytdigest: background digest failed", slog.Any("error", err))
			return
		}
		slog.Info("ytdigest: background digest finished",
			slog.String("run_id", res.RunID),
			slog.Int("videos", res.VideoCount),
		)
	}()
	return c.JSON(http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *triggerHandler) wait() { h.wg.Wait() }
