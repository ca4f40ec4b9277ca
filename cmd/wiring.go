package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/intentiq/internal/adapters/audio"
	"github.com/okian/intentiq/internal/adapters/embedding"
	"github.com/okian/intentiq/internal/adapters/repository"
	"github.com/okian/intentiq/internal/adapters/speech"
	"github.com/okian/intentiq/internal/app"
	"github.com/okian/intentiq/internal/config"
	"github.com/okian/intentiq/internal/domain/intent"
	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/internal/domain/skill"
	"github.com/okian/intentiq/internal/domain/textnorm"
	"github.com/okian/intentiq/pkg/logger"
)

// cli carries flags and the loaded configuration between commands.
type cli struct {
	configPath string
	family     string
	version    string
	logLevel   string

	cfg *config.Config
	log logger.Logger
}

// load reads configuration, applies flag overrides and builds the logger.
func (c *cli) load(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := config.LoadFrom(ctx, c.configPath)
	if err != nil {
		return err
	}
	if c.family != "" {
		cfg.Family = c.family
	}
	if c.version != "" {
		v, err := model.ParseVersion(c.version)
		if err != nil {
			return err
		}
		cfg.Version = int(v)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.cfg = cfg
	c.log = log
	return nil
}

func (c *cli) store() (*repository.FileStore, error) {
	return repository.NewFileStore(c.cfg.ModelRoot, c.cfg.Families,
		repository.WithExtension(c.cfg.ArtifactExt),
		repository.WithLogger(c.log))
}

func (c *cli) embeddingConfig() embedding.Config {
	return embedding.Config{
		Provider: c.cfg.EmbeddingProvider,
		Model:    c.cfg.EmbeddingModel,
		Dim:      c.cfg.EmbeddingDim,
		APIKey:   c.cfg.OpenAIAPIKey,
		BaseURL:  c.cfg.OpenAIBaseURL,
	}
}

// recognizer loads the configured family and version.
func (c *cli) recognizer(ctx context.Context, store repository.Store) (*intent.Recognizer, error) {
	src := intent.Source{Store: store, Embeddings: embedding.NewCache(), Embedding: c.embeddingConfig()}
	return intent.Load(ctx, src, model.Family(c.cfg.Family), model.Version(c.cfg.Version), intent.WithLogger(c.log))
}

func (c *cli) skills(ctx context.Context) *skill.Registry {
	return skill.New(ctx,
		skill.WithDir(c.cfg.SkillsDir),
		skill.WithStubPersistence(c.cfg.PersistStubs),
		skill.WithHandler("time", skill.Clock{Intent: "time"}),
		skill.WithLogger(c.log))
}

func (c *cli) preprocessor() *textnorm.Preprocessor {
	if !c.cfg.Preprocess {
		return nil
	}
	return textnorm.New(
		textnorm.WithWakeWord(c.cfg.WakeWord),
		textnorm.WithFillerWords(c.cfg.FillerWords))
}

// components are the pieces one engine is built from.
type components struct {
	store  *repository.FileStore
	rec    *intent.Recognizer
	skills *skill.Registry
	engine *app.Engine
}

// build loads the model and skills and wires an engine around input.
func (c *cli) build(ctx context.Context, input app.Input, opts ...app.Option) (*components, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}
	rec, err := c.recognizer(ctx, store)
	if err != nil {
		return nil, err
	}
	skills := c.skills(ctx)

	base := []app.Option{
		app.WithLogger(c.log),
		app.WithShutdownKeywords(c.cfg.ShutdownKeywords...),
		app.WithExitIntent(c.cfg.ExitIntent),
	}
	if pre := c.preprocessor(); pre != nil {
		base = append(base, app.WithPreprocessor(pre))
	}
	e, err := app.New(rec, skills, input, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &components{store: store, rec: rec, skills: skills, engine: e}, nil
}

// voice builds the speech router for the voice and listen input modes. The
// returned cleanup releases engines and the audio device.
func (c *cli) voice(ctx context.Context) (*speech.Router, func(), error) {
	fast, err := speech.NewVosk(c.cfg.VoskModelPath, c.cfg.SampleRate)
	if err != nil {
		return nil, nil, fmt.Errorf("fast engine: %w", err)
	}

	var accurate speech.Batch
	if c.cfg.InputMode == config.InputVoice {
		w, err := speech.NewWhisper(speech.WhisperConfig{
			Model:      c.cfg.AccurateModel,
			APIKey:     c.cfg.OpenAIAPIKey,
			BaseURL:    c.cfg.OpenAIBaseURL,
			Language:   c.cfg.AccurateLanguage,
			SampleRate: c.cfg.SampleRate,
		})
		if err != nil {
			c.log.Warn(ctx, "accurate engine unavailable, escalations will be empty", logger.Error(err))
		} else {
			accurate = w
		}
	}

	srcOpts := []audio.SourceOption{
		audio.WithSampleRate(c.cfg.SampleRate),
		audio.WithBlockSize(c.cfg.BlockSize),
		audio.WithQueueSize(c.cfg.ChunkQueueSize),
		audio.WithLogger(c.log),
	}
	var (
		source  audio.Source
		release = func() {}
	)
	if c.cfg.AudioFile != "" {
		f, err := os.Open(c.cfg.AudioFile)
		if err != nil {
			_ = fast.Close()
			return nil, nil, fmt.Errorf("open audio file: %w", err)
		}
		replay, err := audio.NewReplayReader(f, append(srcOpts, audio.WithPacing(true))...)
		_ = f.Close()
		if err != nil {
			_ = fast.Close()
			return nil, nil, err
		}
		source = replay
	} else {
		mic, err := audio.NewMicrophone(srcOpts...)
		if err != nil {
			_ = fast.Close()
			return nil, nil, err
		}
		source = mic
		release = func() { _ = mic.Close() }
	}

	router, err := speech.NewRouter(fast, accurate, source,
		speech.WithLogger(c.log),
		speech.WithSampleRate(c.cfg.SampleRate),
		speech.WithPolicy(speech.Policy{
			ShortCommandMaxWords:   c.cfg.ShortCommandMaxWords,
			LowConfidenceThreshold: c.cfg.LowConfidenceThreshold,
		}))
	if err != nil {
		_ = fast.Close()
		release()
		return nil, nil, err
	}
	cleanup := func() {
		if err := router.Close(); err != nil {
			c.log.Warn(ctx, "failed to release speech engines", logger.Error(err))
		}
		release()
	}
	return router, cleanup, nil
}

// input selects the utterance source for the configured mode.
func (c *cli) input(ctx context.Context, cmd *cobra.Command) (app.Input, func(), error) {
	switch c.cfg.InputMode {
	case config.InputVoice, config.InputListen:
		router, cleanup, err := c.voice(ctx)
		if err != nil {
			return nil, nil, err
		}
		window := time.Duration(c.cfg.CaptureSeconds * float64(time.Second))
		return app.NewVoiceInput(router, window, c.cfg.InputMode == config.InputListen), cleanup, nil
	default:
		return app.NewTextInput(cmd.InOrStdin()), func() {}, nil
	}
}
