package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	replay := flag.String("replay", "", "replay a scenario (built-in name or YAML file) and print its events")
	flag.Parse()

	var err error
	if *replay != "" {
		err = runReplay(*replay, os.Stdout)
	} else {
		err = run(*configPath, *withTray)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "mudra:", err)
		os.Exit(1)
	}
}

func run(configPath string, withTray bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	log.Init(cfg.Log.Level)

	gestureCfg, err := cfg.Gesture.Resolve()
	if err != nil {
		return err
	}

	var st *store.Store
	if cfg.Storage.Path != "" {
		st, err = store.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	}

	a, err := app.New(app.Config{
		Gesture:         gestureCfg,
		Camera:          cfg.Camera.Capture(),
		Detector:        cfg.Detector.Config(),
		Transport:       cfg.Transport.Config(),
		MotionThreshold: cfg.Camera.MotionThreshold,
		IdleFPS:         cfg.Camera.IdleFPS,
		IdleAfter:       cfg.Camera.IdleAfter,
		PluginDir:       cfg.Plugins.Dir,
		PluginTimeout:   cfg.Plugins.Timeout,
		Store:           st,
		Preview:         cfg.Server.Preview,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info("serving static files", "dir", staticDir)
	}

	srvCfg := server.Config{
		StaticDir: staticDir,
		Store:     st,
		Engine:    a,
		Plugins:   a.Plugins(),
	}
	if p := a.Preview(); p != nil {
		srvCfg.Frames = p
	}
	srv := server.New(srvCfg)

	a.OnEvent(srv.Hub().BroadcastEvent)
	a.OnLanes(srv.Hub().BroadcastLanes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var t *tray.Tray
	if withTray {
		t = tray.New(a.Enabled())
		t.OnToggle(func(enabled bool) {
			if err := a.SetEnabled(enabled); err != nil {
				log.Error("failed to toggle recognition", "error", err)
			}
		})
		t.OnOpen(func() { openBrowser(dashboardURL(cfg.Server.Addr)) })
		t.OnQuit(stop)
		a.OnToggle(t.SetEnabled)
		a.OnEvent(func(e gesture.Event) { t.SetLastGesture(e.Label.String()) })
	}

	if err := a.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	if t != nil {
		// The tray owns the main goroutine until it quits.
		go func() {
			select {
			case <-ctx.Done():
			case <-errCh:
				stop()
			}
			t.Quit()
		}()
		t.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("server shutdown", "error", err)
	}
	a.Stop()
	return nil
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir looks for the dashboard in web, ../web, ../../web and
// ~/.mudra/web, returning the first that exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
