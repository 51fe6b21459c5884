package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOllamaClient(t *testing.T) {
	Convey("Given an Ollama server", t, func() {
		var got ollamaGenerateRequest
		var path string
		status := http.StatusOK
		reply := ollamaGenerateResponse{Model: "llama3.1", Response: `{"ok":true}`, Done: true}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			if status != http.StatusOK {
				http.Error(w, "model not found", status)
				return
			}
			_ = json.NewEncoder(w).Encode(reply)
		}))
		Reset(srv.Close)

		client := NewOllamaClient(srv.URL+"/", "")

		Convey("When generating", func() {
			text, err := client.Generate(context.Background(), "plan please")

			Convey("Then a non-streaming JSON request is sent", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, `{"ok":true}`)
				So(path, ShouldEqual, "/api/generate")
				So(got.Model, ShouldEqual, DefaultOllamaModel)
				So(got.Prompt, ShouldEqual, "plan please")
				So(got.Format, ShouldEqual, "json")
				So(got.Stream, ShouldBeFalse)
			})
		})

		Convey("When the server rejects the request", func() {
			status = http.StatusNotFound
			_, err := client.Generate(context.Background(), "plan please")

			Convey("Then the status and body are reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "404")
				So(err.Error(), ShouldContainSubstring, "model not found")
			})
		})

		Convey("When the server reports an error in the body", func() {
			reply = ollamaGenerateResponse{Error: "out of memory"}
			_, err := client.Generate(context.Background(), "plan please")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "out of memory")
		})

		Convey("Then the name carries the model", func() {
			So(client.Name(), ShouldEqual, "ollama:llama3.1")
		})
	})
}

func TestOllamaClientCancellation(t *testing.T) {
	Convey("Given a server slower than the caller's deadline", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		Reset(func() {
			close(release)
			srv.Close()
		})

		client := NewOllamaClient(srv.URL, "tiny", WithHTTPClient(srv.Client()))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := client.Generate(ctx, "plan please")

		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
	})
}

func TestGeminiClient(t *testing.T) {
	Convey("Given no API key", t, func() {
		_, err := NewGeminiClient(context.Background(), "", "")
		So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
	})

	Convey("Given an API key", t, func() {
		client, err := NewGeminiClient(context.Background(), "test-key", "")
		So(err, ShouldBeNil)
		So(client.Name(), ShouldEqual, "gemini:"+DefaultGeminiModel)
	})
}
