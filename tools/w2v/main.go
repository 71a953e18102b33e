package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/kydenul/log"

	"github.com/kydenul/word2vec"
	"github.com/kydenul/word2vec/storage/boltstore"
	"github.com/kydenul/word2vec/storage/sqlitestore"
	"github.com/kydenul/word2vec/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath    string
		logCfgPath string
		modelIn    string
		modelOut   string
		vecOut     string
		maxWords   int
		interact   bool
	)
	flag.StringVar(&cfgPath, "config", os.Getenv("W2V_CONFIG"), "Path to YAML config file (defaults to $W2V_CONFIG)")
	flag.StringVar(&logCfgPath, "log-config", os.Getenv("W2V_LOG_CONFIG"), "Path to log config file")
	flag.StringVar(&modelIn, "load", "", "Read a model written by -model instead of building one")
	flag.StringVar(&modelOut, "model", "", "Write the trained model to this path")
	flag.StringVar(&vecOut, "output", "", "Export vectors to this .vec path")
	flag.IntVar(&maxWords, "max-words", 0, "Maximum number of words to export, 0 exports all")
	flag.BoolVar(&interact, "tui", false, "Open the interactive query console after training")
	flag.Parse()
	inputs := flag.Args()

	if len(inputs) == 0 && modelIn == "" {
		fmt.Println("Usage: w2v [-config config.yaml] [-output model.vec] [-model model.w2v] [-tui] file1.txt [file2.txt ...]")
		fmt.Println("       w2v -load model.w2v [-tui] [file1.txt ...]")
		os.Exit(1)
	}

	logger := newLogger(logCfgPath)

	cfg := word2vec.DefaultConfig()
	if cfgPath != "" {
		loaded, err := word2vec.LoadFromYAML(cfgPath)
		if err != nil {
			logger.Errorf("Failed to load config, path: %s, error: %v", cfgPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, inputs, modelIn, modelOut, vecOut, maxWords, interact); err != nil {
		logger.Errorf("w2v failed, error: %v", err)
		os.Exit(1)
	}
}

func newLogger(path string) log.Logger {
	if path != "" {
		opt, err := log.LoadFromFile(path)
		if err == nil {
			return log.NewLog(opt)
		}
		fmt.Fprintf(os.Stderr, "Failed to load log config from file: %v\n", err)
	}
	return log.NewLog(&log.Options{Level: "info"})
}

func run(
	ctx context.Context,
	cfg *word2vec.Config,
	logger word2vec.Logger,
	inputs []string,
	modelIn, modelOut, vecOut string,
	maxWords int,
	interact bool,
) error {
	processor, err := word2vec.NewTextProcessorWithStopWords(cfg.StopWordsPath)
	if err != nil {
		return fmt.Errorf("load stop words: %w", err)
	}

	corpus, err := word2vec.LoadTextCorpus(inputs, processor)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	logger.Infof("Corpus loaded, files: %d, documents: %d", len(inputs), corpus.NumDocuments())

	w2v, closer, err := buildModel(cfg, corpus, logger, modelIn)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	w2v.SetTextProcessor(processor)

	if corpus.NumDocuments() > 0 {
		w2v.SetProgressCallback(func(p word2vec.TrainingProgress) {
			logger.Infof("Training progress, epoch: %d/%d, documents: %d/%d, words: %d, learning_rate: %f, elapsed: %v",
				p.Epoch, p.TotalEpochs, p.DocumentsProcessed, p.TotalDocuments, p.WordsProcessed, p.LearningRate, p.Elapsed)
		})

		if err := w2v.Fit(ctx); err != nil {
			if !errors.Is(err, word2vec.ErrInterrupted) {
				return err
			}
			logger.Warnf("Training interrupted, exporting the partially trained vectors")
		}
	}

	stats := w2v.GetStats()
	logger.Infof("Model ready, vocabulary_size: %d, layer_size: %d, words_processed: %d, huffman_max_depth: %d",
		stats.VocabularySize, stats.LayerSize, stats.WordsProcessed, stats.HuffmanMaxDepth)

	if vecOut != "" {
		if err := w2v.SaveVectors(vecOut, maxWords); err != nil {
			return fmt.Errorf("export vectors: %w", err)
		}
		logger.Infof("Vectors exported, path: %s, max_words: %d", vecOut, maxWords)
	}

	if modelOut != "" {
		if err := writeModel(w2v, modelOut); err != nil {
			return fmt.Errorf("write model: %w", err)
		}
		logger.Infof("Model written, path: %s", modelOut)
	}

	if interact {
		summary := fmt.Sprintf("%d words, %d dimensions, state: %s", stats.VocabularySize, stats.LayerSize, stats.State)
		if _, err := tea.NewProgram(tui.New(w2v, summary), tea.WithAltScreen()).Run(); err != nil {
			return err
		}
	}

	return nil
}

// buildModel reads a saved model, or creates one backed by the configured storage
func buildModel(
	cfg *word2vec.Config,
	corpus word2vec.Corpus,
	logger word2vec.Logger,
	modelIn string,
) (*word2vec.Word2Vec, io.Closer, error) {
	if modelIn != "" {
		file, err := os.Open(modelIn) //nolint:gosec
		if err != nil {
			return nil, nil, err
		}
		defer file.Close()

		w2v, err := word2vec.ReadModel(file, corpus, logger)
		return w2v, nil, err
	}

	var (
		storage word2vec.VocabularyStorage
		closer  io.Closer
	)
	switch cfg.Storage.Type {
	case word2vec.StorageNone:
	case word2vec.StorageBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := boltstore.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt storage: %w", err)
		}
		storage, closer = s, s
	case word2vec.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := sqlitestore.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		storage, closer = s, s
	default:
		return nil, nil, fmt.Errorf("%w: storage.type %q", word2vec.ErrInvalidConfiguration, cfg.Storage.Type)
	}

	w2v, err := word2vec.NewWord2VecFromConfig(cfg, corpus, storage, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	return w2v, closer, nil
}

func writeModel(w2v *word2vec.Word2Vec, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	if _, err := w2v.WriteTo(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
