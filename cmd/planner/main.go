package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/studyplanner/internal/handler"
	appI18n "github.com/pavelanni/studyplanner/internal/i18n"
	"github.com/pavelanni/studyplanner/internal/llm"
	"github.com/pavelanni/studyplanner/internal/model"
	"github.com/pavelanni/studyplanner/internal/planner"
	"github.com/pavelanni/studyplanner/internal/session"
	"github.com/pavelanni/studyplanner/internal/store"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planner",
		Short: "Exam study planner powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, planCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `planner --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP planner server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "planner.db", "SQLite database path")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "Message language (en, ru)")
	f.IntP("quiz-size", "n", 5, "Default number of quiz questions")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a study plan from a syllabus file, no LLM required",
		RunE:  runPlan,
	}
	f := cmd.Flags()
	f.StringP("syllabus", "s", "", "Path to a syllabus JSON file (subject to topic-list object)")
	f.StringP("end-date", "e", "", "Exam date in YYYY-MM-DD format")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("syllabus")
	_ = cmd.MarkFlagRequired("end-date")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored plans and quiz attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "planner.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("planner")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/planner")
	v.AddConfigPath("/etc/planner")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	// The deterministic plan path works without a model, so an unreachable
	// endpoint is a warning, not a startup failure.
	if err := llmClient.Ping(context.Background()); err != nil {
		slog.Warn("LLM endpoint unreachable, generation endpoints will fail",
			"url", v.GetString("llm-url"), "error", err)
	} else {
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	cfg := model.Config{
		Addr:          v.GetString("addr"),
		DBPath:        v.GetString("db"),
		LLMURL:        v.GetString("llm-url"),
		LLMKey:        v.GetString("llm-key"),
		LLMModel:      v.GetString("llm-model"),
		Lang:          lang,
		QuizSize:      v.GetInt("quiz-size"),
		SecureCookies: v.GetBool("secure-cookies"),
	}

	sessions := session.NewManager(session.DefaultTTL)
	go func() {
		for range time.Tick(time.Hour) {
			if removed := sessions.Sweep(); removed > 0 {
				slog.Debug("swept expired sessions", "removed", removed)
			}
		}
	}()

	h := handler.New(db, llmClient, sessions, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	slog.Info("starting server",
		"addr", cfg.Addr,
		"model", cfg.LLMModel,
		"llm_url", cfg.LLMURL,
		"lang", lang,
		"quiz_size", cfg.QuizSize,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	endDate, err := time.Parse("2006-01-02", v.GetString("end-date"))
	if err != nil {
		return fmt.Errorf("parse end date: %w", err)
	}

	data, err := os.ReadFile(v.GetString("syllabus"))
	if err != nil {
		return fmt.Errorf("read syllabus: %w", err)
	}
	var syllabus model.Syllabus
	if err := json.Unmarshal(data, &syllabus); err != nil {
		return fmt.Errorf("parse syllabus: %w", err)
	}

	days := planner.Partition(syllabus, endDate, time.Now())
	slog.Info("computed plan",
		"topics", syllabus.TopicCount(),
		"days", len(days),
	)

	out, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(v.GetString("output"), out)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportHistory()
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(v.GetString("output"), data)
}

func writeOutput(path string, data []byte) error {
	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
