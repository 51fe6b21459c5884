package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/liftguard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"LIFTGUARD_CONFIG",
	"LIFTGUARD_ADDR",
	"LIFTGUARD_LOG_LEVEL",
	"LIFTGUARD_STORE_DRIVER",
	"LIFTGUARD_SQLITE_PATH",
	"LIFTGUARD_POSTGRES_DSN",
	"LIFTGUARD_MODEL_PROVIDER",
	"LIFTGUARD_GEMINI_API_KEY",
	"LIFTGUARD_COACH_TIMEOUT_MS",
	"LIFTGUARD_MAX_LIMIT",
	"LIFTGUARD_CORS_ORIGINS",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LIFTGUARD_ADDR", ":9000")
			_ = os.Setenv("LIFTGUARD_STORE_DRIVER", "memory")
			_ = os.Setenv("LIFTGUARD_MODEL_PROVIDER", "none")
			_ = os.Setenv("LIFTGUARD_COACH_TIMEOUT_MS", "2500")
			_ = os.Setenv("LIFTGUARD_CORS_ORIGINS", "http://app.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.ModelProvider, convey.ShouldEqual, config.ProviderNone)
				convey.So(cfg.CoachTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://app.example"})
				convey.So(cfg.MaxLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
store_driver: postgres
postgres_dsn: postgres://liftguard@localhost/liftguard
max_limit: 50
`)
			_ = os.Setenv("LIFTGUARD_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace defaults and the rest stay", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.PostgresDSN, convey.ShouldEqual, "postgres://liftguard@localhost/liftguard")
				convey.So(cfg.MaxLimit, convey.ShouldEqual, 50)
				convey.So(cfg.MaxWindowDays, convey.ShouldEqual, 365)
				convey.So(cfg.OllamaModel, convey.ShouldEqual, "llama3.1")
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			path := writeConfigFile(t, "addr: \":9090\"\nmax_limit: 50\n")
			_ = os.Setenv("LIFTGUARD_CONFIG", path)
			_ = os.Setenv("LIFTGUARD_MAX_LIMIT", "20")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxLimit, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			_ = os.Setenv("LIFTGUARD_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("LIFTGUARD_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the result fails validation", func() {
			_ = os.Setenv("LIFTGUARD_MODEL_PROVIDER", "gemini")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "gemini_api_key")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When an empty addr is set", func() {
			_ = os.Setenv("LIFTGUARD_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
