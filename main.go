package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/Pyradex/acrputilities/handler"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", slog.Any("err", err))
	}

	requiredEnv := []string{
		"SLACK_BOT_TOKEN",
		"SLACK_APP_TOKEN",
		"TICKET_PARENT_CHANNEL_ID",
		"LOG_CHANNEL_ID",
		"APPROVAL_CHANNEL_ID",
		"SESSION_CHANNEL_ID",
		"CCR_GROUP_ID",
		"SCR_GROUP_ID",
	}
	for _, env := range requiredEnv {
		if os.Getenv(env) == "" {
			slog.Error("required environment variable not set", slog.String("env", env))
			os.Exit(1)
		}
	}
}

func healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ACRP Utilities is running.")
	})
	return mux
}

// keepAlive answers uptime probes from the hosting platform.
func keepAlive(bind string) {
	go func() {
		if err := http.ListenAndServe(bind, healthMux()); err != nil {
			slog.Error("keep-alive server failed", slog.Any("err", err))
		}
	}()
}

func main() {
	h, err := handler.NewHandler()
	if err != nil {
		slog.Error("NewHandler failed", slog.Any("err", err))
		os.Exit(1)
	}

	bind := ":3000"
	if os.Getenv("PORT") != "" {
		bind = ":" + os.Getenv("PORT")
	}
	keepAlive(bind)
	slog.Info("Server listening", slog.String("bind", bind))

	if err := h.Handle(); err != nil {
		slog.Error("Server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
