package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/liftguard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
			convey.So(cfg.SQLitePath, convey.ShouldEqual, "assessments.db")
			convey.So(cfg.ModelProvider, convey.ShouldEqual, config.ProviderOllama)
			convey.So(cfg.OllamaModel, convey.ShouldEqual, "llama3.1")
			convey.So(cfg.GeminiModel, convey.ShouldEqual, "gemini-2.0-flash")
			convey.So(cfg.CoachTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.MaxLimit, convey.ShouldEqual, 100)
			convey.So(cfg.MaxWindowDays, convey.ShouldEqual, 365)
			convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://localhost:5173", "http://127.0.0.1:5173"})
			convey.So(cfg.Validate(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Origins(t *testing.T) {
	convey.Convey("Given comma-separated origins", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then blanks and spaces are dropped", func() {
			cfg.CORSOrigins = " http://a.example , ,http://b.example,"
			convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://a.example", "http://b.example"})
		})

		convey.Convey("Then an empty list yields no origins", func() {
			cfg.CORSOrigins = ""
			convey.So(cfg.Origins(), convey.ShouldBeEmpty)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		ctx := context.Background()
		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }, "addr must not be empty"},
			{"zero timeout", func(c *config.Config) { c.CoachTimeoutMS = 0 }, "coach_timeout_ms"},
			{"zero max limit", func(c *config.Config) { c.MaxLimit = 0 }, "max_limit"},
			{"zero max window", func(c *config.Config) { c.MaxWindowDays = -1 }, "max_window_days"},
			{"unknown driver", func(c *config.Config) { c.StoreDriver = "mongo" }, `unknown store_driver "mongo"`},
			{"sqlite without path", func(c *config.Config) { c.SQLitePath = "" }, "sqlite_path"},
			{"postgres without dsn", func(c *config.Config) { c.StoreDriver = config.StorePostgres }, "postgres_dsn"},
			{"unknown provider", func(c *config.Config) { c.ModelProvider = "gpt" }, `unknown model_provider "gpt"`},
			{"gemini without key", func(c *config.Config) { c.ModelProvider = config.ProviderGemini }, "gemini_api_key"},
			{"ollama without url", func(c *config.Config) { c.OllamaURL = "" }, "ollama_url"},
		}
		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New(ctx)
				tc.mutate(cfg)
				err := cfg.Validate(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
			})
		}

		convey.Convey("Then the memory driver and no model need nothing else", func() {
			cfg := config.New(ctx)
			cfg.StoreDriver = config.StoreMemory
			cfg.SQLitePath = ""
			cfg.ModelProvider = config.ProviderNone
			cfg.OllamaURL = ""
			convey.So(cfg.Validate(ctx), convey.ShouldBeNil)
		})
	})
}
